package questionnaire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/errors"
)

func TestValuation(t *testing.T) {
	q := Valuation()

	require.NoError(t, q.Validate())
	require.Len(t, q.Questions, 24)

	kinds := map[conversation.Kind]int{}
	for _, question := range q.Questions {
		kinds[question.Kind]++
	}
	assert.Equal(t, 1, kinds[conversation.KindNumberPositive])
	assert.Equal(t, 2, kinds[conversation.KindNumberNonNegative])
	assert.Equal(t, 2, kinds[conversation.KindIntegerPositive])
	assert.Equal(t, 1, kinds[conversation.KindFreeText])
	assert.Equal(t, 18, kinds[conversation.KindSingleChoice])

	assert.Equal(t, "faturamento_mensal", q.Questions[0].ID)
	assert.Equal(t, "setor_atuacao", q.Questions[5].ID)
	assert.Equal(t, "potencial_internacionalizacao", q.Questions[23].ID)

	for _, question := range q.Questions[6:] {
		assert.Equal(t, RatingScale, question.Choices, question.ID)
		assert.Len(t, question.Choices, 5)
	}
}

func TestValuationChoicesAreIndependent(t *testing.T) {
	q := Valuation()
	q.Questions[6].Choices[0] = "MUTATED"

	assert.Equal(t, "BAIXO", Valuation().Questions[6].Choices[0])
	assert.Equal(t, "BAIXO", q.Questions[7].Choices[0])
}

func TestParse(t *testing.T) {
	data := []byte(`
name: pitch
choices: [NÃO, SIM]
questions:
  - id: receita
    prompt: Qual a receita anual?
    kind: number_nonnegative
  - id: tem_socios
    prompt: A empresa tem sócios?
    kind: single_choice
  - id: estagio
    prompt: Qual o estágio?
    kind: single_choice
    choices: [ideia, mvp, tração]
`)

	q, err := Parse(data, "pitch.yaml")
	require.NoError(t, err)

	assert.Equal(t, "pitch", q.Name)
	require.Len(t, q.Questions, 3)
	assert.Equal(t, conversation.KindNumberNonNegative, q.Questions[0].Kind)
	assert.Equal(t, []string{"NÃO", "SIM"}, q.Questions[1].Choices)
	assert.Equal(t, []string{"ideia", "mvp", "tração"}, q.Questions[2].Choices)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode errors.ErrorCode
	}{
		{"malformed", "questions: [", errors.ErrCodeFileUnmarshal},
		{"empty", "name: x\n", errors.ErrCodeQuestionnaireEmpty},
		{"duplicate", `
questions:
  - {id: a, prompt: "?", kind: free_text}
  - {id: a, prompt: "?", kind: free_text}
`, errors.ErrCodeQuestionnaireDuplicateID},
		{"unknown kind", `
questions:
  - {id: a, prompt: "?", kind: slider}
`, errors.ErrCodeQuestionnaireInvalid},
		{"choice without labels", `
questions:
  - {id: a, prompt: "?", kind: single_choice}
`, errors.ErrCodeQuestionnaireInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "test.yaml")
			require.Error(t, err)

			var vErr *errors.ValuationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantCode, vErr.Code)
		})
	}
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: short
questions:
  - {id: setor, prompt: "Setor?", kind: free_text}
`), 0o644))

	q, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "short", q.Name)

	resolved, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, q, resolved)

	builtin, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "valuation", builtin.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	var vErr *errors.ValuationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, errors.ErrCodeFileNotFound, vErr.Code)
}
