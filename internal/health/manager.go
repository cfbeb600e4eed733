package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each check
const DefaultTimeout = 5 * time.Second

// Manager runs checks in parallel and aggregates their results.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with DefaultTimeout
func NewManager() *Manager {
	return &Manager{timeout: DefaultTimeout}
}

// WithTimeout sets the per-check timeout
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.timeout = timeout
	return m
}

// Add registers checkers. Reports list them in this order.
func (m *Manager) Add(checkers ...Checker) {
	m.checkers = append(m.checkers, checkers...)
}

// Names returns the registered checker names in order
func (m *Manager) Names() []string {
	names := make([]string, len(m.checkers))
	for i, c := range m.checkers {
		names[i] = c.Name()
	}
	return names
}

// Check is a named result within a Report
type Check struct {
	Name string `json:"name"`
	*Result
}

// Report is the aggregated outcome of every registered check
type Report struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Checks    []Check   `json:"checks"`
	Timestamp time.Time `json:"timestamp"`
}

// Check runs every registered checker, each bounded by the manager timeout.
// A checker that ignores its deadline is reported unhealthy once the
// timeout passes.
func (m *Manager) Check(ctx context.Context) *Report {
	checks := make([]Check, len(m.checkers))

	var g errgroup.Group
	for i, c := range m.checkers {
		i, c := i, c
		g.Go(func() error {
			checks[i] = Check{Name: c.Name(), Result: m.run(ctx, c)}
			return nil
		})
	}
	_ = g.Wait()

	return &Report{
		Status:    Overall(checks),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}

func (m *Manager) run(ctx context.Context, c Checker) *Result {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan *Result, 1)
	go func() { done <- c.Check(ctx) }()

	var result *Result
	select {
	case result = <-done:
		if result == nil {
			result = Unhealthy("check returned no result")
		}
	case <-ctx.Done():
		result = Unhealthy("check timed out").WithDetail("error", ctx.Err().Error())
	}
	if result.Latency == 0 {
		result.Latency = time.Since(start)
	}
	return result
}

// Overall is unhealthy if any check is, degraded if any check is, and
// healthy otherwise, including when there are no checks
func Overall(checks []Check) Status {
	status := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
