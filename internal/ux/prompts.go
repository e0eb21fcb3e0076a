package ux

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm writes message with a (y/N) or (Y/n) marker to out and reads one
// answer line from in. An empty answer or a read failure yields defaultYes.
func Confirm(in io.Reader, out io.Writer, message string, defaultYes bool) bool {
	marker := "(y/N)"
	if defaultYes {
		marker = "(Y/n)"
	}
	fmt.Fprintf(out, "%s %s: ", message, marker)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return defaultYes
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
