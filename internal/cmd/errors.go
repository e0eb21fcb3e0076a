package cmd

import (
	"fmt"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

// NotLoggedInError is returned by commands that need a session.
func NotLoggedInError() error {
	return errors.NewNotLoggedInError()
}

// ValidationError creates a helpful error for an invalid flag value.
func ValidationError(field string, value interface{}, validValues string) error {
	return errors.New(errors.ErrCodeValidationFailed, fmt.Sprintf("Invalid value for %s: %v", field, value)).
		WithSuggestion(fmt.Sprintf("Valid values: %s", validValues)).
		WithSuggestion("Run with --help to see all available options")
}

// MissingFlagsError is returned when required input is missing and prompting
// is not possible.
func MissingFlagsError(flags ...string) error {
	err := errors.New(errors.ErrCodeValidationFailed, "missing required input")
	for _, f := range flags {
		err = err.WithSuggestion(fmt.Sprintf("Pass --%s", f))
	}
	return err.WithSuggestion("Run in an interactive terminal to be prompted instead")
}

// InvalidIDError creates an error for a memory map id that is not a number.
func InvalidIDError(arg string) error {
	return errors.New(errors.ErrCodeValidationFailed, fmt.Sprintf("invalid memory map id %q", arg)).
		WithSuggestion("List ids with: memorymap maps list")
}
