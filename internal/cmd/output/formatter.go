// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/custlist/pkg/errors"
)

// Format is an output format name.
type Format string

const (
	// FormatTable renders aligned text tables.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// Align is a column alignment for table output.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignRight
)

// Formatter writes data in one format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format. Unknown formats render tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter outputs JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(data)
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

// Format implements Formatter.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Data is data already shaped as a table.
type Data struct {
	Headers   []string
	Rows      [][]string
	Alignment []Align
}

// Tabular is implemented by results that know how to present themselves as a table.
type Tabular interface {
	Table() Data
}

// TableFormatter outputs text tables.
type TableFormatter struct{}

// Format implements Formatter. Structs and slices of structs are turned into
// tables by field; anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return render(w, v)
	case Tabular:
		return render(w, v.Table())
	}
	if d := reflectData(data); d != nil {
		return render(w, *d)
	}
	return (&JSONFormatter{Indent: "  "}).Format(w, data)
}

func render(w io.Writer, data Data) error {
	cfg := tablewriter.Config{}
	if len(data.Alignment) > 0 {
		align := make([]tw.Align, len(data.Alignment))
		for i, a := range data.Alignment {
			switch a {
			case AlignLeft:
				align[i] = tw.AlignLeft
			case AlignRight:
				align[i] = tw.AlignRight
			default:
				align[i] = tw.Skip
			}
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: align}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))

	if len(data.Headers) > 0 {
		table.Header(toAny(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(toAny(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// DetectFormat returns explicit when set, a table on terminals and JSON otherwise.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	}
	return "", errors.NewValidationError("output", s, "must be one of: table, json, yaml")
}

var titleCaser = cases.Title(language.English)

// heading names a column after the field's json tag, title-cased.
func heading(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return titleCaser.String(strings.ReplaceAll(name, "_", " "))
	}
	return field.Name
}

func reflectData(data any) *Data {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Struct:
		return structData(v)
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		return sliceData(v)
	}
	return nil
}

// structData renders one struct as property/value rows.
func structData(v reflect.Value) *Data {
	d := &Data{Headers: []string{"Property", "Value"}}
	t := v.Type()
	for i := range t.NumField() {
		if !t.Field(i).IsExported() {
			continue
		}
		d.Rows = append(d.Rows, []string{heading(t.Field(i)), fmt.Sprint(v.Field(i).Interface())})
	}
	return d
}

// sliceData renders a slice of structs with one column per field.
func sliceData(v reflect.Value) *Data {
	t := v.Index(0).Type()
	d := &Data{}
	var fields []int
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			fields = append(fields, i)
			d.Headers = append(d.Headers, heading(t.Field(i)))
		}
	}
	for r := range v.Len() {
		row := make([]string, 0, len(fields))
		for _, i := range fields {
			row = append(row, fmt.Sprint(v.Index(r).Field(i).Interface()))
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}
