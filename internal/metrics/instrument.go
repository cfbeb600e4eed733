package metrics

import (
	"context"
	"time"

	"github.com/felixgeelhaar/valuation/internal/conversation"
)

// Outcome labels of valuation_submissions_total
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "transport_error"
)

// InstrumentSubmitter wraps next so every request is counted and timed
// under frontend. With nil metrics next is returned unchanged.
func InstrumentSubmitter(next conversation.Submitter, m *Metrics, frontend string) conversation.Submitter {
	if m == nil || next == nil {
		return next
	}
	return conversation.SubmitterFunc(func(ctx context.Context, sub conversation.Submission) conversation.Result {
		start := time.Now()
		res := next.Submit(ctx, sub)

		m.SubmissionDuration.WithLabelValues(frontend).Observe(time.Since(start).Seconds())
		m.Submissions.WithLabelValues(frontend, outcome(res)).Inc()
		return res
	})
}

func outcome(res conversation.Result) string {
	switch {
	case res.Success():
		return OutcomeSuccess
	case res.StatusCode == 0:
		return OutcomeFailed
	default:
		return OutcomeRejected
	}
}
