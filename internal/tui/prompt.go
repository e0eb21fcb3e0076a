package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
)

// ciEnv marks environments where nobody can answer a prompt.
var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"}

// IsTerminal reports whether r is an interactive character device.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// ShouldPrompt reports whether forms may be shown to whoever types into in.
func ShouldPrompt(in io.Reader) bool {
	for _, key := range ciEnv {
		if os.Getenv(key) != "" {
			return false
		}
	}
	return IsTerminal(in)
}

// RunForm runs form reading keys from in and drawing to out.
func RunForm(form *huh.Form, in io.Reader, out io.Writer) error {
	if err := form.WithInput(in).WithOutput(out).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// Confirm asks a yes/no question in a form.
func Confirm(message string, defaultYes bool, in io.Reader, out io.Writer) (bool, error) {
	answer := defaultYes
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&answer),
	))
	if err := RunForm(form, in, out); err != nil {
		return false, err
	}
	return answer, nil
}
