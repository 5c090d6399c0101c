package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// YAMLFormatter formats reports as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes a single report as a mapping and several as a sequence.
func (f *YAMLFormatter) Format(w io.Writer, reports []feedback.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return encoder.Close()
}
