package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes a single report as an object and several as an array.
func (f *JSONFormatter) Format(w io.Writer, reports []feedback.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(reports) == 1 {
		return encoder.Encode(reports[0])
	}
	return encoder.Encode(reports)
}
