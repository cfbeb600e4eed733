// Package health checks what a conversation needs before it starts: the
// valuation backend, the questionnaire and the preferences file.
//
//	m := health.NewManager()
//	m.Add(health.NewEndpointChecker(endpoint, httpClient))
//	m.Add(health.NewPreferencesChecker(path))
//
//	report := m.Check(ctx)
//	if report.Status == health.StatusUnhealthy { ... }
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency. Check should respect the context
// deadline.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "valuation-endpoint"
	Name() string
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy means the dependency is fully usable
	StatusHealthy Status = "healthy"

	// StatusDegraded means conversations still work with reduced
	// functionality
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means conversations cannot complete
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is the outcome of a single check
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// NewResult creates a result with the given status and message
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns the result for chaining
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc struct {
	name string
	fn   func(ctx context.Context) *Result
}

// Func returns a Checker named name that runs fn
func Func(name string, fn func(ctx context.Context) *Result) Checker {
	return CheckerFunc{name: name, fn: fn}
}

func (c CheckerFunc) Name() string {
	return c.name
}

func (c CheckerFunc) Check(ctx context.Context) *Result {
	return c.fn(ctx)
}
