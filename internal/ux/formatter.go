// Package ux renders command results, prompts and errors for the terminal.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter writes a command result.
type Formatter interface {
	Format(data any) error
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(data any) error

// Format calls f.
func (f FormatterFunc) Format(data any) error { return f(data) }

// TextRenderer is implemented by results with a human-readable form.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// FormatterOptions configures NewFormatter.
type FormatterOptions struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
	// Compact drops indentation.
	Compact bool
}

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "yaml"}

// NewFormatter returns the formatter for format. An empty format is text.
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	o := FormatterOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}

	switch format {
	case "json":
		return FormatterFunc(func(data any) error { return writeJSON(o, data) }), nil
	case "yaml":
		return FormatterFunc(func(data any) error { return writeYAML(o, data) }), nil
	case "text", "":
		return FormatterFunc(func(data any) error { return writeText(o, data) }), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

func writeJSON(o FormatterOptions, data any) error {
	enc := json.NewEncoder(o.Writer)
	if !o.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// writeYAML renders the JSON encoding of data, so field names match the
// json output.
func writeYAML(o FormatterOptions, data any) error {
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return err
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(o.Writer)
	if !o.Compact {
		enc.SetIndent(2)
	}
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles JSON input parses with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// writeText prefers RenderText, then plain strings, then indented JSON.
func writeText(o FormatterOptions, data any) error {
	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(o.Writer)
	case string:
		_, err := fmt.Fprintln(o.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(o.Writer, v.String())
		return err
	default:
		o.Compact = false
		return writeJSON(o, data)
	}
}
