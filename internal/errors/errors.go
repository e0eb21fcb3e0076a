package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthRegistrationFailed ErrorCode = "AUTH-002"
	ErrCodeAuthNotLoggedIn        ErrorCode = "AUTH-003"
	ErrCodeAuthSessionExpired     ErrorCode = "AUTH-004"
	ErrCodeAuthProfileFailed      ErrorCode = "AUTH-005"
	ErrCodeAuthPasswordFailed     ErrorCode = "AUTH-006"
	ErrCodeAuthTokenMalformed     ErrorCode = "AUTH-007"

	// Backend API errors (API-001 to API-099)
	ErrCodeAPIRequest     ErrorCode = "API-001"
	ErrCodeAPIStatus      ErrorCode = "API-002"
	ErrCodeAPIDecode      ErrorCode = "API-003"
	ErrCodeAPIUnreachable ErrorCode = "API-004"
	ErrCodeAPIEncode      ErrorCode = "API-005"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreReadFailed  ErrorCode = "STORE-001"
	ErrCodeStoreWriteFailed ErrorCode = "STORE-002"
	ErrCodeStoreCorrupt     ErrorCode = "STORE-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid    ErrorCode = "CONFIG-001"
	ErrCodeConfigReadFailed ErrorCode = "CONFIG-002"

	// Form validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodeValidationFailed ErrorCode = "VALIDATION-001"

	// Routing errors (ROUTE-001 to ROUTE-099)
	ErrCodeRouteNotFound ErrorCode = "ROUTE-001"

	// Diagnostics (HEALTH-001 to HEALTH-099)
	ErrCodeHealthCheckFailed ErrorCode = "HEALTH-001"
)

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an AppError with the given code,
// including AppErrors wrapped as the Cause of another.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Category returns the prefix of a code ("AUTH", "API", ...).
func (c ErrorCode) Category() string {
	if i := strings.IndexByte(string(c), '-'); i > 0 {
		return string(c[:i])
	}
	return string(c)
}

// Common error constructors for frequently used errors

// NewNotLoggedInError creates an error for commands that need a session
func NewNotLoggedInError() *AppError {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'memorymap auth login' to authenticate").
		WithSuggestion("Run 'memorymap auth register' to create an account")
}

// NewSessionExpiredError creates an error for a backend 401 response
func NewSessionExpiredError(message string) *AppError {
	return New(ErrCodeAuthSessionExpired, message).
		WithSuggestion("Your session was cleared; run 'memorymap auth login' again")
}

// NewInvalidCredentialsError creates a login failure error
func NewInvalidCredentialsError(message string) *AppError {
	return New(ErrCodeAuthInvalidCredentials, message).
		WithSuggestion("Check your username and password").
		WithSuggestion("Run 'memorymap auth register' if you do not have an account yet")
}

// NewUnreachableError creates an error for a backend that could not be contacted
func NewUnreachableError(url string, cause error) *AppError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("backend unreachable: %s", url), cause).
		WithSuggestion("Check that the Memory Map backend is running").
		WithSuggestion("Set --api-url or MEMORYMAP_API_URL to the backend address")
}

// NewValidationError creates a form validation error
func NewValidationError(details string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("invalid input: %s", details)).
		WithSuggestion("Correct the highlighted fields and try again")
}

// NewStoreCorruptError creates an error for an unreadable session entry
func NewStoreCorruptError(key string, cause error) *AppError {
	return Wrap(ErrCodeStoreCorrupt, fmt.Sprintf("stored %q entry is not valid JSON", key), cause).
		WithSuggestion("Run 'memorymap auth logout' to reset the stored session")
}
