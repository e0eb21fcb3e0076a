// Package exitcode maps command errors to process exit statuses.
package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

const (
	Success      = 0
	GeneralError = 1
	// UsageError covers bad flags and input rejected before any request.
	UsageError   = 2
	// NotFound is an unknown route.
	NotFound     = 3
	AuthError    = 5
	NetworkError = 6
	// Interrupted follows the shell convention for SIGINT.
	Interrupted  = 130
)

// Codes lists every status in ascending order.
var Codes = []int{Success, GeneralError, UsageError, NotFound, AuthError, NetworkError, Interrupted}

var descriptions = map[int]string{
	Success:      "Success",
	GeneralError: "General error",
	UsageError:   "Usage error (invalid flags, arguments or input)",
	NotFound:     "Not found",
	AuthError:    "Authentication error",
	NetworkError: "Network error",
	Interrupted:  "Interrupted",
}

// byCategory maps error code categories that have a dedicated status.
var byCategory = map[string]int{
	"AUTH":       AuthError,
	"VALIDATION": UsageError,
	"ROUTE":      NotFound,
}

// fallbacks classify uncoded errors, such as cobra's, by message.
var fallbacks = []struct {
	code  int
	parts []string
}{
	{AuthError, []string{"unauthorized", "not logged in"}},
	{NetworkError, []string{"connection refused", "timeout", "no such host"}},
	{UsageError, []string{"invalid flag", "unknown flag", "unknown command", "required flag", "accepts"}},
}

// Exit terminates the process.
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with the status DetermineExitCode picks for err.
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode picks the exit status for err. An unreachable backend
// wins over the code of any error wrapping it.
func DetermineExitCode(err error) int {
	switch {
	case err == nil:
		return Success
	case stderrors.Is(err, context.Canceled):
		return Interrupted
	case errors.HasCode(err, errors.ErrCodeAPIUnreachable):
		return NetworkError
	}

	if code := errors.CodeOf(err); code != "" {
		if status, ok := byCategory[code.Category()]; ok {
			return status
		}
		return GeneralError
	}

	msg := strings.ToLower(err.Error())
	for _, f := range fallbacks {
		for _, p := range f.parts {
			if strings.Contains(msg, p) {
				return f.code
			}
		}
	}
	return GeneralError
}

// Describe returns a short description of code.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown error"
}
