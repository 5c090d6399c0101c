// Package output provides output formatters for feedback decision reports.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// Formatter formats decision reports for output.
type Formatter interface {
	// Format writes formatted reports to the writer.
	Format(w io.Writer, reports []feedback.Report) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (FormatType, error) {
	switch FormatType(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPlain, "":
		return FormatPlain, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want plain, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string // Custom Go template for plain format
	ShowRinger bool   // Include the ringer state in plain output
}

// DefaultFormatterOptions returns the defaults used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowRinger: true,
	}
}
