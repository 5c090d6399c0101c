package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// PlainFormatter formats reports as plain text, one line per report.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes reports as plain text.
func (f *PlainFormatter) Format(w io.Writer, reports []feedback.Report) error {
	for i := range reports {
		if err := f.formatReport(w, &reports[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatReport formats a single report.
func (f *PlainFormatter) formatReport(w io.Writer, r *feedback.Report) error {
	if f.template != nil {
		if err := f.template.Execute(w, r); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	sb.WriteString(r.Key + ": ")

	if r.PlaySound {
		sb.WriteString(fmt.Sprintf("sound=%s volume=%.2f", r.Sound, r.Volume))
	} else {
		sb.WriteString("sound=off")
	}

	switch {
	case !r.Vibrate:
		sb.WriteString(" vibrate=off")
	case r.Vibration == "explicit":
		sb.WriteString(fmt.Sprintf(" vibrate=%dms", r.DurationMs))
	default:
		sb.WriteString(" vibrate=" + r.Vibration)
	}

	if f.opts.ShowRinger {
		sb.WriteString(" (ringer " + r.RingerState + ")")
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
