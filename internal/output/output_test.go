package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

func testReports() []feedback.Report {
	return []feedback.Report{
		feedback.NewReport(feedback.CodeEnter, feedback.RingerNormal, feedback.Decision{
			PlaySound: true,
			Sound:     feedback.SoundReturn,
			Volume:    0.5,
			Vibrate:   true,
			Vibration: feedback.SystemDefault(),
		}),
		feedback.NewReport('a', feedback.RingerSilent, feedback.Decision{
			Vibrate:   true,
			Vibration: feedback.Explicit(25),
		}),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FormatType
		wantErr bool
	}{
		{"", FormatPlain, false},
		{"plain", FormatPlain, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatPlain, DefaultFormatterOptions()).Format(&buf, testReports())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "enter: sound=return volume=0.50 vibrate=system-default (ringer normal)", lines[0])
	assert.Equal(t, "a: sound=off vibrate=25ms (ringer silent)", lines[1])
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Key}} {{.PlaySound}}"
	err := NewPlainFormatter(opts).Format(&buf, testReports())
	require.NoError(t, err)
	assert.Equal(t, "enter true\na false\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	reports := testReports()

	var single bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&single, reports[:1]))
	var got feedback.Report
	require.NoError(t, json.Unmarshal(single.Bytes(), &got))
	assert.Equal(t, reports[0], got)

	var many bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&many, reports))
	var all []feedback.Report
	require.NoError(t, json.Unmarshal(many.Bytes(), &all))
	assert.Equal(t, reports, all)
}

func TestYAMLFormatter_Format(t *testing.T) {
	reports := testReports()

	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(DefaultFormatterOptions()).Format(&buf, reports[1:]))
	assert.Contains(t, buf.String(), "play_sound: false")
	assert.Contains(t, buf.String(), "duration_ms: 25")
	assert.NotContains(t, buf.String(), "\nsound:")

	var got feedback.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, reports[1], got)
}
