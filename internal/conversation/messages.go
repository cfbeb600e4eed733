package conversation

// Messages holds every user-facing text the driver emits.
// The defaults are the pt-BR texts of the valuation product.
type Messages struct {
	Completed        string
	InputPlaceholder string

	InvalidNumber      string
	InvalidPositive    string
	InvalidNonNegative string
	InvalidInteger     string
	BlankText          string
	InvalidChoice      string

	SubmitLabel     string
	ProcessingLabel string
	RetryLabel      string

	Processing      string
	SuccessTitle    string
	ErrorTitle      string
	AnalysisStarted string

	HistoryLabel  string
	StartNewLabel string
}

// DefaultMessages returns the built-in pt-BR texts
func DefaultMessages() Messages {
	return Messages{
		Completed:        "Excelente! Coletei todos os dados. Agora, por favor, clique no botão \"Calcular Valuation\".",
		InputPlaceholder: "Digite sua resposta aqui...",

		InvalidNumber:      "Por favor, insira um valor numérico válido.",
		InvalidPositive:    "Por favor, insira um número positivo maior que zero.",
		InvalidNonNegative: "Por favor, insira um número válido (zero ou maior).",
		InvalidInteger:     "Por favor, insira um número inteiro maior que zero.",
		BlankText:          "Esta resposta não pode ficar em branco.",
		InvalidChoice:      "Por favor, escolha uma das opções.",

		SubmitLabel:     "Calcular Valuation",
		ProcessingLabel: "Processando...",
		RetryLabel:      "Falha! Tentar Calcular Novamente",

		Processing:      "Iniciando análise... Isso pode levar algum tempo.",
		SuccessTitle:    "Sucesso!",
		ErrorTitle:      "Erro:",
		AnalysisStarted: "Sua análise foi iniciada! Você pode acompanhar o progresso no seu histórico ou iniciar uma nova simulação.",

		HistoryLabel:  "Ir para o Histórico",
		StartNewLabel: "Iniciar Nova Simulação",
	}
}

// ValidationMessage returns the error text for a rejected answer of the given kind
func (m Messages) ValidationMessage(kind Kind) string {
	switch kind {
	case KindNumberAny:
		return m.InvalidNumber
	case KindNumberPositive:
		return m.InvalidPositive
	case KindNumberNonNegative:
		return m.InvalidNonNegative
	case KindIntegerPositive:
		return m.InvalidInteger
	case KindFreeText:
		return m.BlankText
	default:
		return m.InvalidChoice
	}
}

// withDefaults fills empty fields from DefaultMessages
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.Completed, d.Completed)
	fill(&m.InputPlaceholder, d.InputPlaceholder)
	fill(&m.InvalidNumber, d.InvalidNumber)
	fill(&m.InvalidPositive, d.InvalidPositive)
	fill(&m.InvalidNonNegative, d.InvalidNonNegative)
	fill(&m.InvalidInteger, d.InvalidInteger)
	fill(&m.BlankText, d.BlankText)
	fill(&m.InvalidChoice, d.InvalidChoice)
	fill(&m.SubmitLabel, d.SubmitLabel)
	fill(&m.ProcessingLabel, d.ProcessingLabel)
	fill(&m.RetryLabel, d.RetryLabel)
	fill(&m.Processing, d.Processing)
	fill(&m.SuccessTitle, d.SuccessTitle)
	fill(&m.ErrorTitle, d.ErrorTitle)
	fill(&m.AnalysisStarted, d.AnalysisStarted)
	fill(&m.HistoryLabel, d.HistoryLabel)
	fill(&m.StartNewLabel, d.StartNewLabel)
	return m
}
