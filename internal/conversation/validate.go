package conversation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/valuation/internal/errors"
)

// ValidationError reports a raw answer that does not satisfy its question's kind.
// The user is re-prompted with the kind-specific message; nothing is stored.
type ValidationError struct {
	QuestionID string
	Kind       Kind
	Input      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s answer for %s: %q", e.Kind, e.QuestionID, e.Input)
}

// Is matches any answer validation error against the ANSWER-002 code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*errors.ValuationError)
	return ok && t.Code == errors.ErrCodeAnswerInvalid
}

// ErrInvalidAnswer matches every *ValidationError through errors.Is
var ErrInvalidAnswer = errors.New(errors.ErrCodeAnswerInvalid, "answer failed validation")

// Validate parses raw according to q.Kind and returns the value to store.
// Input is trimmed; numeric kinds accept a decimal comma in place of a point.
func Validate(q Question, raw string) (any, error) {
	value := strings.TrimSpace(raw)
	invalid := &ValidationError{QuestionID: q.ID, Kind: q.Kind, Input: raw}

	switch q.Kind {
	case KindNumberAny, KindNumberPositive, KindNumberNonNegative:
		n, ok := parseReal(value)
		if !ok {
			return nil, invalid
		}
		if q.Kind == KindNumberPositive && n <= 0 {
			return nil, invalid
		}
		if q.Kind == KindNumberNonNegative && n < 0 {
			return nil, invalid
		}
		return n, nil

	case KindIntegerPositive:
		if !allDigits(value) {
			return nil, invalid
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return nil, invalid
		}
		return n, nil

	case KindFreeText:
		if value == "" {
			return nil, invalid
		}
		return value, nil

	case KindSingleChoice:
		if !q.HasChoice(value) {
			return nil, invalid
		}
		return value, nil
	}

	return nil, invalid
}

func parseReal(s string) (float64, bool) {
	s = strings.Replace(s, ",", ".", 1)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateQuestions checks the invariants of an ordered question sequence:
// at least one question, unique non-empty ids, non-empty prompts, known
// kinds, and choices exactly on single_choice questions.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errors.New(errors.ErrCodeQuestionnaireEmpty, "questionnaire has no questions")
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return errors.NewQuestionnaireInvalidError(fmt.Sprintf("#%d", i+1), "id is empty")
		}
		if _, dup := seen[q.ID]; dup {
			return errors.NewQuestionnaireDuplicateIDError(q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Prompt) == "" {
			return errors.NewQuestionnaireInvalidError(q.ID, "prompt is empty")
		}
		if !q.Kind.Valid() {
			return errors.NewQuestionnaireInvalidError(q.ID, fmt.Sprintf("unknown kind %q", q.Kind))
		}

		switch {
		case q.Kind == KindSingleChoice && len(q.Choices) == 0:
			return errors.NewQuestionnaireInvalidError(q.ID, "single_choice question has no choices")
		case q.Kind != KindSingleChoice && len(q.Choices) > 0:
			return errors.NewQuestionnaireInvalidError(q.ID, fmt.Sprintf("%s question cannot declare choices", q.Kind))
		}

		labels := make(map[string]struct{}, len(q.Choices))
		for _, c := range q.Choices {
			if strings.TrimSpace(c) == "" {
				return errors.NewQuestionnaireInvalidError(q.ID, "choice label is empty")
			}
			if _, dup := labels[c]; dup {
				return errors.NewQuestionnaireInvalidError(q.ID, fmt.Sprintf("duplicate choice %q", c))
			}
			labels[c] = struct{}{}
		}
	}
	return nil
}
