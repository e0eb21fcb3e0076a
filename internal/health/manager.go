package health

import (
	"context"
	"sync"
	"time"
)

// DefaultTimeout bounds each check.
const DefaultTimeout = 5 * time.Second

// Report is the result of one named check.
type Report struct {
	Name string `json:"name" yaml:"name"`
	*Result
}

// Manager runs a fixed list of checks.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager. A non-positive timeout means DefaultTimeout.
func NewManager(timeout time.Duration, checkers ...Checker) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{checkers: checkers, timeout: timeout}
}

// Names lists the checks in run order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.checkers))
	for i, c := range m.checkers {
		names[i] = c.Name()
	}
	return names
}

// Check runs every check concurrently and returns the reports in
// registration order. A check still running at its deadline is reported
// unhealthy.
func (m *Manager) Check(ctx context.Context) []Report {
	reports := make([]Report, len(m.checkers))

	var wg sync.WaitGroup
	for i, c := range m.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = Report{Name: c.Name(), Result: m.run(ctx, c)}
		}()
	}
	wg.Wait()

	return reports
}

func (m *Manager) run(ctx context.Context, c Checker) *Result {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan *Result, 1)
	start := time.Now()
	go func() { done <- c.Check(ctx) }()

	var res *Result
	select {
	case res = <-done:
		if res == nil {
			res = Unhealthy("check returned no result")
		}
	case <-ctx.Done():
		res = Unhealthy("check did not finish in time").WithDetail("timeout", m.timeout.String())
	}
	if res.Latency == 0 {
		res.Latency = time.Since(start)
	}
	return res
}

// Overall is the worst status among reports. No reports is healthy.
func Overall(reports []Report) Status {
	status := StatusHealthy
	for _, r := range reports {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
