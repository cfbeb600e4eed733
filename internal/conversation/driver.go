package conversation

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/log"
)

// DefaultPacing is the delay between an accepted answer and the next prompt
const DefaultPacing = 500 * time.Millisecond

// Options configures a Driver
type Options struct {
	Submitter  Submitter
	Deferrer   Deferrer
	Pacing     time.Duration
	Messages   Messages
	HistoryURL string
	Logger     *log.Logger
}

// Driver walks a user through a fixed question sequence, validates each
// answer, and hands the collected answers to a Submitter.
//
// A Driver is not safe for concurrent use. Front-ends call it from a single
// event loop, or serialize calls with their own lock.
type Driver struct {
	id        string
	questions []Question
	state     *State

	presenter  Presenter
	submitter  Submitter
	deferrer   Deferrer
	pacing     time.Duration
	messages   Messages
	historyURL string
	baseLogger *log.Logger
	logger     *log.Logger

	inputEnabled  bool
	choicesShown  bool
	submitEnabled bool
	inFlight      bool
	submitted     bool
}

// NewDriver creates a driver in the AwaitingAnswer(0) state. Nothing is
// presented until PresentCurrentQuestion is called.
func NewDriver(questions []Question, presenter Presenter, opts Options) (*Driver, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	if presenter == nil {
		return nil, errors.New(errors.ErrCodeConfigMissing, "conversation presenter is required")
	}

	if opts.Deferrer == nil {
		opts.Deferrer = Immediate{}
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)

	d := &Driver{
		id:         uuid.NewString(),
		questions:  qs,
		state:      NewState(len(qs)),
		presenter:  presenter,
		submitter:  opts.Submitter,
		deferrer:   opts.Deferrer,
		pacing:     opts.Pacing,
		messages:   opts.Messages.withDefaults(),
		historyURL: opts.HistoryURL,
		baseLogger: opts.Logger,
	}
	d.logger = d.baseLogger.With("conversation_id", d.id)
	return d, nil
}

// ID returns the identifier of the current conversation. It changes on Reset.
func (d *Driver) ID() string {
	return d.id
}

// Questions returns the question sequence
func (d *Driver) Questions() []Question {
	return d.questions
}

// Messages returns the texts the driver emits
func (d *Driver) Messages() Messages {
	return d.messages
}

// CurrentQuestion returns the question awaiting an answer, or false once complete
func (d *Driver) CurrentQuestion() (Question, bool) {
	if d.state.Complete() {
		return Question{}, false
	}
	return d.questions[d.state.Cursor()], true
}

// Cursor returns the index of the question awaiting an answer
func (d *Driver) Cursor() int {
	return d.state.Cursor()
}

// IsComplete returns true if all questions have been answered
func (d *Driver) IsComplete() bool {
	return d.state.Complete()
}

// Answers returns a copy of the accepted answers
func (d *Driver) Answers() Answers {
	return d.state.Answers()
}

// Progress returns the current progress (percentage)
func (d *Driver) Progress() float64 {
	return float64(d.state.Cursor()) / float64(len(d.questions)) * 100.0
}

// InputEnabled reports whether free text is currently accepted
func (d *Driver) InputEnabled() bool {
	return d.inputEnabled
}

// SubmitEnabled reports whether the submission trigger is enabled
func (d *Driver) SubmitEnabled() bool {
	return d.submitEnabled
}

// Phase returns the externally visible state of the conversation
func (d *Driver) Phase() Phase {
	switch {
	case d.inFlight:
		return PhaseSubmitting
	case d.submitted:
		return PhaseSubmitted
	case d.state.Complete():
		return PhaseComplete
	default:
		return PhaseAwaitingAnswer
	}
}

// PresentCurrentQuestion emits the prompt at the cursor and advertises how
// it must be answered. Once complete it announces completion and enables
// the submission trigger. Calling it again at the same cursor only repeats
// the output.
func (d *Driver) PresentCurrentQuestion() {
	d.clearChoices()

	q, ok := d.CurrentQuestion()
	if !ok {
		d.presenter.ShowBotMessage(d.messages.Completed)
		d.setInputEnabled(false)
		d.setSubmitEnabled(true, d.messages.SubmitLabel)
		d.logger.Info("collection complete", "answers", d.state.Len())
		return
	}

	d.presenter.ShowBotMessage(q.Prompt)
	if q.Kind == KindSingleChoice {
		d.setInputEnabled(false)
		d.presenter.ShowChoices(q.Choices)
		d.choicesShown = true
		return
	}
	d.setInputEnabled(true)
}

// SubmitFreeText handles text typed by the user. Empty input, input while
// the text field is disabled, and text aimed at a choice question are
// ignored with ErrInputIgnored. A value that fails validation is discarded
// after showing the kind-specific message; the returned error wraps
// ErrInvalidAnswer.
func (d *Driver) SubmitFreeText(raw string) error {
	if strings.TrimSpace(raw) == "" || !d.inputEnabled {
		return ErrInputIgnored
	}
	q, ok := d.CurrentQuestion()
	if !ok || q.Kind == KindSingleChoice {
		return ErrInputIgnored
	}

	value, err := Validate(q, raw)
	if err != nil {
		d.logger.Debug("answer rejected", "question_id", q.ID, "kind", string(q.Kind))
		d.presenter.ShowBotMessage(d.messages.ValidationMessage(q.Kind))
		d.setInputEnabled(true)
		return err
	}

	d.presenter.ShowUserMessage(raw)
	return d.accept(q, value)
}

// SubmitChoice handles a discrete-choice selection for the current question
func (d *Driver) SubmitChoice(label string) error {
	q, ok := d.CurrentQuestion()
	if !ok || q.Kind != KindSingleChoice || !d.choicesShown {
		return ErrInputIgnored
	}
	if !q.HasChoice(label) {
		return ErrUnknownChoice
	}

	d.presenter.ShowUserMessage(label)
	return d.accept(q, label)
}

func (d *Driver) accept(q Question, value any) error {
	if err := d.state.Record(q.ID, value); err != nil {
		return err
	}
	d.logger.Debug("answer accepted", "question_id", q.ID, "cursor", d.state.Cursor())

	d.clearChoices()
	d.setInputEnabled(false)

	id, cursor := d.id, d.state.Cursor()
	d.deferrer.Defer(d.pacing, func() {
		// A reset or another answer during the delay supersedes this step.
		if d.id != id || d.state.Cursor() != cursor {
			return
		}
		d.PresentCurrentQuestion()
	})
	return nil
}

// Reset discards every answer and starts a new conversation from the
// first question.
func (d *Driver) Reset() {
	d.state.Reset()
	d.id = uuid.NewString()
	d.logger = d.baseLogger.With("conversation_id", d.id)
	d.inFlight = false
	d.submitted = false
	d.choicesShown = false

	d.presenter.ClearConversation()
	d.presenter.ClearFeedback()
	d.setSubmitEnabled(false, d.messages.SubmitLabel)
	d.logger.Info("conversation reset")

	d.PresentCurrentQuestion()
}

// StartNew is the "start new" next action offered after a successful submission
func (d *Driver) StartNew() {
	d.Reset()
}

// HistoryURL returns the navigation target offered after a successful submission
func (d *Driver) HistoryURL() string {
	return d.historyURL
}

// SubmitForValuation sends the answers and applies the outcome. It blocks
// until the Submitter returns.
func (d *Driver) SubmitForValuation(ctx context.Context) error {
	sub, err := d.BeginSubmission()
	if err != nil {
		return err
	}
	d.CompleteSubmission(sub, d.Dispatch(ctx, sub))
	return nil
}

// BeginSubmission disables the trigger, shows the processing indication and
// returns the payload to send. It fails with ErrSubmitDisabled unless the
// conversation is complete and the trigger is enabled, so at most one
// request is outstanding per conversation.
func (d *Driver) BeginSubmission() (Submission, error) {
	if !d.state.Complete() || !d.submitEnabled || d.inFlight {
		return Submission{}, ErrSubmitDisabled
	}

	d.inFlight = true
	d.setSubmitEnabled(false, d.messages.ProcessingLabel)
	d.presenter.ShowFeedback(Feedback{Kind: FeedbackInfo, Message: d.messages.Processing})
	d.logger.Info("submitting answers", "answers", d.state.Len())

	return Submission{ConversationID: d.id, Answers: d.state.Answers()}, nil
}

// Dispatch hands sub to the configured Submitter. It does not touch driver
// state, so event loops may run it off their own goroutine.
func (d *Driver) Dispatch(ctx context.Context, sub Submission) Result {
	if d.submitter == nil {
		return Result{Outcome: OutcomeFailure, Message: "no valuation backend configured"}
	}
	return d.submitter.Submit(ctx, sub)
}

// CompleteSubmission applies the result of a request started with
// BeginSubmission. Results for a conversation that has since been reset are
// dropped.
func (d *Driver) CompleteSubmission(sub Submission, res Result) {
	if sub.ConversationID != d.id || !d.inFlight {
		d.logger.Debug("stale submission result dropped", "submission_id", sub.ConversationID)
		return
	}
	d.inFlight = false

	if !res.Success() {
		d.logger.Warn("submission failed", "status", res.StatusCode, "message", res.Message)
		d.presenter.ShowFeedback(Feedback{Kind: FeedbackError, Title: d.messages.ErrorTitle, Message: res.Message})
		d.setSubmitEnabled(true, d.messages.RetryLabel)
		return
	}

	d.submitted = true
	d.setSubmitEnabled(false, d.messages.SubmitLabel)
	d.logger.Info("submission accepted", "status", res.StatusCode, "report_id", res.ReportID)
	d.presenter.ShowFeedback(Feedback{Kind: FeedbackSuccess, Title: d.messages.SuccessTitle, Message: res.Message})
	d.presenter.ClearConversation()
	d.clearChoices()
	d.presenter.ShowBotMessage(d.messages.AnalysisStarted)
	d.presenter.ShowNextActions([]Action{
		{Kind: ActionHistory, Label: d.messages.HistoryLabel, URL: d.historyURL},
		{Kind: ActionStartNew, Label: d.messages.StartNewLabel},
	})
}

func (d *Driver) clearChoices() {
	d.choicesShown = false
	d.presenter.ClearChoices()
}

func (d *Driver) setInputEnabled(enabled bool) {
	d.inputEnabled = enabled
	d.presenter.SetInputEnabled(enabled)
}

func (d *Driver) setSubmitEnabled(enabled bool, label string) {
	d.submitEnabled = enabled
	d.presenter.SetSubmitEnabled(enabled, label)
}

// IsIgnored reports whether err means the input was dropped without effect
func IsIgnored(err error) bool {
	return stderrors.Is(err, ErrInputIgnored)
}
