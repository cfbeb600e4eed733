package conversation

import (
	"context"
	"time"
)

type event struct {
	op   string
	text string
	on   bool
	list []string
}

// recorder is a headless Presenter that remembers what it was asked to render
type recorder struct {
	events   []event
	bot      []string
	user     []string
	choices  []string
	input    bool
	submit   bool
	label    string
	feedback *Feedback
	actions  []Action
}

func (r *recorder) ShowBotMessage(text string) {
	r.events = append(r.events, event{op: "bot", text: text})
	r.bot = append(r.bot, text)
}

func (r *recorder) ShowUserMessage(text string) {
	r.events = append(r.events, event{op: "user", text: text})
	r.user = append(r.user, text)
}

func (r *recorder) ShowChoices(labels []string) {
	r.events = append(r.events, event{op: "choices", list: labels})
	r.choices = append([]string(nil), labels...)
}

func (r *recorder) ClearChoices() {
	r.events = append(r.events, event{op: "clear_choices"})
	r.choices = nil
}

func (r *recorder) SetInputEnabled(enabled bool) {
	r.events = append(r.events, event{op: "input", on: enabled})
	r.input = enabled
}

func (r *recorder) SetSubmitEnabled(enabled bool, label string) {
	r.events = append(r.events, event{op: "submit", on: enabled, text: label})
	r.submit = enabled
	r.label = label
}

func (r *recorder) ShowFeedback(f Feedback) {
	r.events = append(r.events, event{op: "feedback", text: f.Message})
	r.feedback = &f
}

func (r *recorder) ClearFeedback() {
	r.events = append(r.events, event{op: "clear_feedback"})
	r.feedback = nil
}

func (r *recorder) ClearConversation() {
	r.events = append(r.events, event{op: "clear"})
	r.bot = nil
	r.user = nil
}

func (r *recorder) ShowNextActions(actions []Action) {
	r.events = append(r.events, event{op: "actions"})
	r.actions = actions
}

func (r *recorder) lastBot() string {
	if len(r.bot) == 0 {
		return ""
	}
	return r.bot[len(r.bot)-1]
}

// manualDeferrer queues deferred steps until the test runs them
type manualDeferrer struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualDeferrer) Defer(delay time.Duration, fn func()) {
	m.pending = append(m.pending, fn)
	m.delays = append(m.delays, delay)
}

func (m *manualDeferrer) runAll() {
	steps := m.pending
	m.pending = nil
	for _, fn := range steps {
		fn()
	}
}

// stubSubmitter returns a fixed result and records what it received
type stubSubmitter struct {
	result Result
	calls  []Submission
}

func (s *stubSubmitter) Submit(_ context.Context, sub Submission) Result {
	s.calls = append(s.calls, sub)
	return s.result
}
