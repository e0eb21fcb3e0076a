package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

// ErrorWithSuggestion attaches a recovery hint to an error.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
}

func (e *ErrorWithSuggestion) Unwrap() error { return e.Err }

// NewErrorWithSuggestion wraps err. A nil err stays nil.
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

type hint struct {
	matches    func(err error, msg string) bool
	suggestion string
}

func messageHas(parts ...string) func(error, string) bool {
	return func(_ error, msg string) bool {
		for _, p := range parts {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	}
}

func hasCode(code errors.ErrorCode) func(error, string) bool {
	return func(err error, _ string) bool { return errors.HasCode(err, code) }
}

// hints are checked in order; the first match wins.
var hints = []hint{
	{messageHas("connection refused", "no such host"),
		"Check that the Memory Map backend is running and --api-url points at it"},
	{messageHas("deadline exceeded", "Client.Timeout"),
		"The backend did not answer in time; raise api.timeout or try again"},
	{messageHas("permission denied"),
		"Check permissions of ~/.memorymap or pass --session-file"},
	{messageHas("prompt failed", "user aborted"),
		"Pass the values as flags to run without prompts"},
	{hasCode(errors.ErrCodeAPIStatus),
		"Run with --log-level debug to see the request id and response status"},
}

// EnhanceError adds a recovery suggestion to errors that carry none.
// Coded errors with their own suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
		return err
	}

	msg := err.Error()
	for _, h := range hints {
		if h.matches(err, msg) {
			return NewErrorWithSuggestion(err, h.suggestion)
		}
	}
	return err
}
