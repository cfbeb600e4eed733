package conversation

import (
	"github.com/felixgeelhaar/valuation/internal/errors"
)

// Kind defines how an answer to a question is collected and validated
type Kind string

const (
	KindNumberAny         Kind = "number_any"
	KindNumberPositive    Kind = "number_positive"
	KindNumberNonNegative Kind = "number_nonnegative"
	KindIntegerPositive   Kind = "integer_positive"
	KindFreeText          Kind = "free_text"
	KindSingleChoice      Kind = "single_choice"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindNumberAny, KindNumberPositive, KindNumberNonNegative,
		KindIntegerPositive, KindFreeText, KindSingleChoice:
		return true
	}
	return false
}

// Numeric reports whether answers of this kind are parsed as numbers
func (k Kind) Numeric() bool {
	switch k {
	case KindNumberAny, KindNumberPositive, KindNumberNonNegative, KindIntegerPositive:
		return true
	}
	return false
}

// Question represents a single prompt in the conversation
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// HasChoice reports whether label is one of the question's declared choices
func (q Question) HasChoice(label string) bool {
	for _, c := range q.Choices {
		if c == label {
			return true
		}
	}
	return false
}

// Answers maps question ids to validated values: float64 for real numbers,
// int64 for integers and string for free text and choice labels.
type Answers map[string]any

// Phase is the externally visible state of a driver
type Phase int

const (
	// PhaseAwaitingAnswer means the cursor points at an unanswered question
	PhaseAwaitingAnswer Phase = iota
	// PhaseComplete means every question has an answer
	PhaseComplete
	// PhaseSubmitting means a valuation request is in flight
	PhaseSubmitting
	// PhaseSubmitted means the backend accepted the answers
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseComplete:
		return "complete"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// FeedbackKind classifies submission feedback
type FeedbackKind int

const (
	FeedbackInfo FeedbackKind = iota
	FeedbackSuccess
	FeedbackError
)

// Feedback is the submission status banner shown next to the conversation
type Feedback struct {
	Kind    FeedbackKind
	Title   string
	Message string
}

// ActionKind identifies a next action offered after a successful submission
type ActionKind string

const (
	ActionHistory  ActionKind = "history"
	ActionStartNew ActionKind = "new"
)

// Action is a next step offered to the user. History actions carry a URL.
type Action struct {
	Kind  ActionKind
	Label string
	URL   string
}

// Outcome is the typed result of a valuation request
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

// Submission is the payload handed to a Submitter
type Submission struct {
	ConversationID string
	Answers        Answers
}

// Result is returned by a Submitter. Message is shown verbatim to the user.
type Result struct {
	Outcome    Outcome
	Message    string
	StatusCode int
	ReportID   string
}

// Success reports whether the backend accepted the submission
func (r Result) Success() bool {
	return r.Outcome == OutcomeSuccess
}

var (
	// ErrInputIgnored is returned when an answer arrives while the driver
	// is not accepting that kind of input. No state changes.
	ErrInputIgnored = errors.New(errors.ErrCodeAnswerIgnored, "input ignored")

	// ErrUnknownChoice is returned when a label is not declared by the current question
	ErrUnknownChoice = errors.New(errors.ErrCodeAnswerUnknownChoice, "label is not a choice of the current question")

	// ErrSubmitDisabled is returned when the submission trigger is not enabled
	ErrSubmitDisabled = errors.New(errors.ErrCodeSubmitDisabled, "submission trigger is disabled")

	// ErrAlreadyAnswered is returned when an id would be written twice
	ErrAlreadyAnswered = errors.New(errors.ErrCodeAnswerDuplicate, "question already answered")
)
