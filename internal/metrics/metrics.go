package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the chat front-ends
type Metrics struct {
	// Conversation metrics
	Conversations *prometheus.CounterVec
	Answers       *prometheus.CounterVec
	Sessions      *prometheus.GaugeVec

	// Submission metrics
	Submissions        *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Conversations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuation_conversations_started_total",
				Help: "Total number of conversations started, including resets",
			},
			[]string{"frontend"},
		),
		Answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuation_answers_total",
				Help: "Total number of answers received, by validation result",
			},
			[]string{"frontend", "result"},
		),
		Sessions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "valuation_sessions",
				Help: "Number of chats holding a conversation",
			},
			[]string{"frontend"},
		),

		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuation_submissions_total",
				Help: "Total number of valuation requests, by outcome",
			},
			[]string{"frontend", "outcome"},
		),
		SubmissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuation_submission_duration_seconds",
				Help:    "Valuation request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"frontend"},
		),
	}
}

// Answer results
const (
	AnswerAccepted = "accepted"
	AnswerRejected = "rejected"
)

// ObserveAnswer counts an answer. A nil receiver records nothing.
func (m *Metrics) ObserveAnswer(frontend string, accepted bool) {
	if m == nil {
		return
	}
	result := AnswerRejected
	if accepted {
		result = AnswerAccepted
	}
	m.Answers.WithLabelValues(frontend, result).Inc()
}

// ObserveConversation counts a started conversation. A nil receiver records nothing.
func (m *Metrics) ObserveConversation(frontend string) {
	if m == nil {
		return
	}
	m.Conversations.WithLabelValues(frontend).Inc()
}

// SetSessions records the number of live sessions. A nil receiver records nothing.
func (m *Metrics) SetSessions(frontend string, n int) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(frontend).Set(float64(n))
}
