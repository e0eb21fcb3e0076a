package cmd

import (
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
	"github.com/felixgeelhaar/memorymap/internal/tui"
	"github.com/felixgeelhaar/memorymap/internal/ux"
)

// emptyFlags returns the names of string flags that have no value.
func emptyFlags(cmd *cobra.Command, names ...string) []string {
	var empty []string
	for _, name := range names {
		if v, _ := cmd.Flags().GetString(name); v == "" {
			empty = append(empty, name)
		}
	}
	return empty
}

// fillInteractively runs the form built by newForm when any of missing is
// empty. Without a terminal the missing flags are reported instead.
func (cc *CommandContext) fillInteractively(newForm func() *huh.Form, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	if !tui.ShouldPrompt(cc.in) {
		return MissingFlagsError(missing...)
	}
	return tui.RunForm(newForm(), cc.in, cc.errOut)
}

// confirm asks a yes/no question. A terminal gets a form; otherwise one
// line is read from the command's input.
func (cc *CommandContext) confirm(message string, defaultYes bool) bool {
	if tui.ShouldPrompt(cc.in) {
		ok, err := tui.Confirm(message, defaultYes, cc.in, cc.errOut)
		return err == nil && ok
	}
	return ux.Confirm(cc.in, cc.errOut, message, defaultYes)
}

// outcomeError converts a failed session action into an error.
func outcomeError(out sessionctx.Outcome, code errors.ErrorCode) error {
	if out.Err != nil {
		return out.Err
	}
	return errors.New(code, out.Error)
}
