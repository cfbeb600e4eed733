// Package questionnaire provides the question sequences the conversation
// driver walks through: the built-in valuation questionnaire and sequences
// loaded from YAML files.
package questionnaire

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/errors"
)

// RatingScale is the ordered label set of every self-assessment question
var RatingScale = []string{"BAIXO", "NÃO CONSIGO AVALIAR", "MÉDIO", "ALTO", "ELEVADO"}

// Questionnaire is a named, ordered question sequence
type Questionnaire struct {
	Name        string                  `yaml:"name" json:"name"`
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Choices     []string                `yaml:"choices,omitempty" json:"choices,omitempty"`
	Questions   []conversation.Question `yaml:"questions" json:"questions"`
}

// Valuation returns the built-in questionnaire: six financial figures
// followed by eighteen self-assessment ratings.
func Valuation() Questionnaire {
	return Questionnaire{
		Name:        "valuation",
		Description: "Dados financeiros e autoavaliação do modelo de negócio",
		Choices:     RatingScale,
		Questions: append(financial(), selfAssessment(
			// Peso 1
			rating("visao_pessoas", "Como você avalia a Visão das pessoas sobre a ideia/ modelo de negócio?"),
			rating("nivel_validacao", "Como você avalia o Nível das pesquisas de Validação?"),
			rating("nivel_equipe", "Como você avalia o Nível da equipe?"),
			rating("potencial_network", "Como você avalia o Potencial do Network da Equipe?"),
			// Peso 2
			rating("diferencial_modelo", "Como você avalia o Diferencial do modelo de negócio em relação aos concorrentes?"),
			rating("possibilidade_escala", "Como você avalia a Possibilidade de escala?"),
			rating("pmf", "Como você avalia o Product Market Fit (PMF)?"),
			rating("potencial_alcance", "Como você avalia o Potencial de Alcance do Público (Crescimento do Mercado)?"),
			rating("nivel_parcerias", "Como você avalia o Nível de Parcerias já constituídas?"),
			rating("estagio_modelo", "Como você avalia o Estágio do modelo de negócio?"),
			rating("estagio_prototipo", "Como você avalia o Estágio do protótipo?"),
			rating("nivel_analise_financeira", "Como você avalia o Nível do levantamento/ análise financeira?"),
			rating("estagio_comercializacao", "Como você avalia o Estágio de comercialização do modelo de negócio?"),
			rating("nivel_faturamento", "Como você avalia o Nível de faturamento do modelo de negócio?"),
			rating("nivel_lucro", "Como você avalia o Nível de lucro do modelo de negócio?"),
			// Peso -2
			rating("possibilidade_copia", "Como você avalia a Possibilidade de ser copiado?"),
			rating("potencial_mercado_barreiras", "Como você avalia o Potencial de Mercado (barreiras legais/ políticas/ econômicas)?"),
			rating("potencial_internacionalizacao", "Como você avalia o Potencial de Internacionalização (barreiras culturais)?"),
		)...),
	}
}

func financial() []conversation.Question {
	return []conversation.Question{
		{
			ID:     "faturamento_mensal",
			Prompt: "Qual foi o faturamento bruto aproximado no último mês?",
			Kind:   conversation.KindNumberPositive,
		},
		{
			ID:     "gastos_variaveis",
			Prompt: "Quais são os seus custos variáveis mensais aproximados?",
			Kind:   conversation.KindNumberNonNegative,
		},
		{
			ID:     "gastos_fixos",
			Prompt: "Quais são os seus custos fixos mensais aproximados?",
			Kind:   conversation.KindNumberNonNegative,
		},
		{
			ID:     "num_vendas",
			Prompt: "Qual foi o número total de vendas no último mês?",
			Kind:   conversation.KindIntegerPositive,
		},
		{
			ID:     "num_prospeccoes",
			Prompt: "Quantos clientes (leads) foram prospectados no último mês?",
			Kind:   conversation.KindIntegerPositive,
		},
		{
			ID:     "setor_atuacao",
			Prompt: "Em qual setor principal sua empresa atua? (Ex: Varejo, Tecnologia, Saúde)",
			Kind:   conversation.KindFreeText,
		},
	}
}

func rating(id, prompt string) conversation.Question {
	return conversation.Question{ID: id, Prompt: prompt, Kind: conversation.KindSingleChoice}
}

func selfAssessment(qs ...conversation.Question) []conversation.Question {
	for i := range qs {
		qs[i].Choices = append([]string(nil), RatingScale...)
	}
	return qs
}

// Validate checks the question sequence invariants
func (q Questionnaire) Validate() error {
	return conversation.ValidateQuestions(q.Questions)
}

// Load reads a questionnaire from a YAML file. Choice questions without
// their own labels inherit the file-level choices.
func Load(path string) (Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Questionnaire{}, errors.NewFileNotFoundError(path)
		}
		return Questionnaire{}, errors.Wrap(errors.ErrCodeFileReadFailed, "read questionnaire", err)
	}
	return Parse(data, path)
}

// Parse decodes a YAML questionnaire. source is only used in error messages.
func Parse(data []byte, source string) (Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return Questionnaire{}, errors.NewFileUnmarshalError(source, "YAML", err)
	}

	for i := range q.Questions {
		if q.Questions[i].Kind == conversation.KindSingleChoice && len(q.Questions[i].Choices) == 0 {
			q.Questions[i].Choices = append([]string(nil), q.Choices...)
		}
	}

	if err := q.Validate(); err != nil {
		return Questionnaire{}, err
	}
	return q, nil
}

// Resolve returns the questionnaire at path, or the built-in one when path is empty
func Resolve(path string) (Questionnaire, error) {
	if path == "" {
		return Valuation(), nil
	}
	return Load(path)
}
