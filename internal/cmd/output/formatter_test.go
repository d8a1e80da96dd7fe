package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/errors"
)

type row struct {
	Serial string `json:"serial"`
	Count  int    `json:"occurrence_count"`
	hidden string
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"wide", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, row{Serial: "C000001", Count: 2}))
	assert.JSONEq(t, `{"serial":"C000001","occurrence_count":2}`, buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, []string{"EventX", "EventY"}))
	assert.Equal(t, "- EventX\n- EventY\n", buf.String())
}

func TestTableFormatterSlice(t *testing.T) {
	var buf bytes.Buffer
	rows := []row{{Serial: "C000001", Count: 2}, {Serial: "C000002", Count: 1}}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "C000001")
	assert.Contains(t, out, "C000002")
	assert.NotContains(t, out, "hidden")
}

func TestTableFormatterData(t *testing.T) {
	var buf bytes.Buffer
	data := Data{
		Headers:   []string{"Event", "Records"},
		Rows:      [][]string{{"EventX", "3"}},
		Alignment: []Align{AlignLeft, AlignRight},
	}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), "EventX")
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"records": 3}))
	assert.JSONEq(t, `{"records":3}`, buf.String())
}

func TestPrintRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, "xml", row{})
	assert.True(t, errors.IsValidationError(err))
}
