// Package health runs diagnostics over the local client setup and the
// backend it talks to. Checks run in parallel, each under a deadline.
package health

import (
	"context"
	"time"
)

// Checker is one diagnostic.
type Checker interface {
	// Name is short and hyphenated, e.g. "session-file".
	Name() string
	// Check must return once ctx is done.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	// StatusDegraded means commands still work but something needs attention.
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is what a Checker reports.
type Result struct {
	Status     Status         `json:"status" yaml:"status"`
	Message    string         `json:"message" yaml:"message"`
	Suggestion string         `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Details    map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency    time.Duration  `json:"-" yaml:"-"`
}

func newResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message}
}

func Healthy(message string) *Result {
	return newResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return newResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return newResult(StatusUnhealthy, message)
}

// WithDetail records a key/value pair and returns r.
func (r *Result) WithDetail(key string, value any) *Result {
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	r.Details[key] = value
	return r
}

// WithSuggestion sets a recovery hint and returns r.
func (r *Result) WithSuggestion(s string) *Result {
	r.Suggestion = s
	return r
}
