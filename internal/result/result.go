// Package result provides a tagged success/failure value for operations whose
// callers branch on outcome instead of handling a returned error.
package result

import (
	stderrors "errors"
	"fmt"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

// Result holds either a value or a failure.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail returns a failed result. A nil err is replaced with a generic failure so
// that a Fail result is never mistaken for success.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = stderrors.New("unknown failure")
	}
	return Result[T]{err: err}
}

// Failf returns a failed result with a formatted message.
func Failf[T any](format string, args ...any) Result[T] {
	return Fail[T](fmt.Errorf(format, args...))
}

// OK reports whether the result is a success.
func (r Result[T]) OK() bool {
	return r.err == nil
}

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure, or nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Message returns the failure text, or "" on success. For coded errors this is
// the bare message without code, cause or suggestions, suitable for inline
// display.
func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	var appErr *errors.AppError
	if stderrors.As(r.err, &appErr) {
		return appErr.Message
	}
	return r.err.Error()
}

// Unwrap converts the result back to Go's (value, error) convention.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Map applies fn to a successful value; failures pass through unchanged.
func Map[T, U any](r Result[T], fn func(T) (U, error)) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	u, err := fn(r.value)
	if err != nil {
		return Fail[U](err)
	}
	return Ok(u)
}
