package conversation

import (
	"context"
	"sync"
	"time"
)

// Presenter is the rendering side of a conversation. Front-ends (terminal,
// messenger) implement it; the driver never renders anything itself.
type Presenter interface {
	ShowBotMessage(text string)
	ShowUserMessage(text string)
	// ShowChoices offers one control per label, in order. Selecting one
	// must end up in Driver.SubmitChoice.
	ShowChoices(labels []string)
	ClearChoices()
	SetInputEnabled(enabled bool)
	SetSubmitEnabled(enabled bool, label string)
	ShowFeedback(f Feedback)
	ClearFeedback()
	ClearConversation()
	ShowNextActions(actions []Action)
}

// Submitter sends the collected answers to the valuation backend.
// Implementations make exactly one attempt and never return a Go error:
// transport problems are reported as an OutcomeFailure Result.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) Result
}

// SubmitterFunc adapts a function to the Submitter interface
type SubmitterFunc func(ctx context.Context, sub Submission) Result

// Submit calls f(ctx, sub)
func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) Result {
	return f(ctx, sub)
}

// Deferrer runs fn once after delay. It is how the driver paces the next
// prompt after an accepted answer.
type Deferrer interface {
	Defer(delay time.Duration, fn func())
}

// Immediate runs deferred steps synchronously, ignoring the delay
type Immediate struct{}

// Defer calls fn right away
func (Immediate) Defer(_ time.Duration, fn func()) {
	fn()
}

// Timers defers steps with time.AfterFunc. Steps scheduled after ctx is
// done never run, which ties pending continuations to the lifetime of the
// owning front-end. When mu is set, every step runs while holding it so it
// is serialized with the front-end's other events.
type Timers struct {
	ctx context.Context
	mu  sync.Locker
}

// NewTimers creates a Timers deferrer bound to ctx
func NewTimers(ctx context.Context, mu sync.Locker) *Timers {
	return &Timers{ctx: ctx, mu: mu}
}

// Defer schedules fn to run after delay unless the context ends first
func (t *Timers) Defer(delay time.Duration, fn func()) {
	if t.ctx.Err() != nil {
		return
	}
	time.AfterFunc(delay, func() {
		if t.mu != nil {
			t.mu.Lock()
			defer t.mu.Unlock()
		}
		if t.ctx.Err() != nil {
			return
		}
		fn()
	})
}
