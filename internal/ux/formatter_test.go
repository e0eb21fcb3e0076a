package ux

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

type testData struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"name": "test"`) {
		t.Errorf("JSON output missing expected field: %s", output)
	}
	if !strings.Contains(output, `"value": 42`) {
		t.Errorf("JSON output missing expected field: %s", output)
	}
}

func TestJSONFormatterCompact(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{
		Writer:  &buf,
		Compact: true,
	})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	// Compact JSON should be single line (no indentation)
	if strings.Count(output, "\n") > 1 {
		t.Errorf("Compact JSON should be single line, got: %s", output)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "name: test") {
		t.Errorf("YAML output missing expected field: %s", output)
	}
	if !strings.Contains(output, "value: 42") {
		t.Errorf("YAML output missing expected field: %s", output)
	}
}

func TestYAMLFormatterRawJSON(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	if err := formatter.Format(json.RawMessage(`{"id":7,"title":"Lisbon"}`)); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "id: 7\ntitle: Lisbon\n"
	if got := buf.String(); got != want {
		t.Errorf("YAML output = %q, want %q", got, want)
	}
}

func TestYAMLFormatterUsesJSONNames(t *testing.T) {
	type record struct {
		CreatedAt string `json:"created_at"`
		Flag      string `json:"flag"`
		Tags      []int  `json:"tags"`
	}

	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if err := formatter.Format(record{CreatedAt: "2024-01-02", Flag: "true", Tags: []int{1, 2}}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{`created_at: "2024-01-02"`, `flag: "true"`, "tags:\n", "- 2\n"} {
		if !strings.Contains(output, want) {
			t.Errorf("YAML output %q missing %q", output, want)
		}
	}
}

type renderer struct{}

func (renderer) RenderText(w io.Writer) error {
	_, err := io.WriteString(w, "rendered\n")
	return err
}

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
		want string
	}{
		{
			name: "string data",
			data: "hello world",
			want: "hello world",
		},
		{
			name: "text renderer",
			data: renderer{},
			want: "rendered",
		},
		{
			name: "stringer",
			data: stringer{},
			want: "stringer",
		},
		{
			name: "struct falls back to JSON",
			data: testData{Name: "test", Value: 42},
			want: "{\n  \"name\": \"test\",\n  \"value\": 42\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf})
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}

			if err := formatter.Format(tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			output := strings.TrimSpace(buf.String())
			if output != tt.want {
				t.Errorf("Format() output = %q, want %q", output, tt.want)
			}
		})
	}
}
