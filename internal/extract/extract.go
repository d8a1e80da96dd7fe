// Package extract locates titled tables inside input workbooks and turns their
// rows into raw observations.
//
// A sheet may hold several tables. Each starts at a title row (a cell beginning
// with 【, used as the event label), followed by a header row containing "No."
// and data rows up to the first blank row or the next title.
package extract

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/custlist/internal/config"
	"github.com/agentstation/custlist/internal/textnorm"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
)

// Table describes one located table.
type Table struct {
	Sheet  string `json:"sheet" yaml:"sheet"`
	Title  string `json:"title" yaml:"title"`
	Rows   int    `json:"rows" yaml:"rows"`
	Reason string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Skipped reports whether the table was ignored.
func (t Table) Skipped() bool { return t.Reason != "" }

// Extraction is the result of reading one input file.
type Extraction struct {
	Observations []records.RawObservation
	Tables       []Table
}

// Extractor reads input files using the configured column candidates.
type Extractor struct {
	cols config.Columns
}

// New returns an Extractor for the given column candidates.
func New(cols config.Columns) *Extractor {
	return &Extractor{cols: cols}
}

// Extract reads every sheet of an .xlsx file, or the single grid of a .csv file.
// It fails with a ConfigError when no table exposes an email column.
func (e *Extractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	logger := logging.FromContext(ctx)

	sheets, err := readSheets(path)
	if err != nil {
		return nil, err
	}

	x := &extraction{cols: e.cols}
	for _, s := range sheets {
		logger.Debug().Str("sheet", s.name).Int("rows", len(s.rows)).Msg("scanning sheet")
		x.scanSheet(s.name, s.rows)
	}

	for _, t := range x.out.Tables {
		ev := logger.Info()
		if t.Skipped() {
			ev = logger.Warn().Str("reason", t.Reason)
		}
		ev.Str("sheet", t.Sheet).Str("title", t.Title).Int("rows", t.Rows).Msg("located table")
	}

	if !x.sawEmail {
		return nil, errors.NewConfigError("extract", "no table exposes an email column",
			&errors.MissingColumnError{Column: "email", Candidates: e.cols.Email})
	}
	logger.Info().Int("tables", len(x.out.Tables)).Int("observations", len(x.out.Observations)).Msg("extracted input")
	return &x.out, nil
}

type sheet struct {
	name string
	rows [][]string
}

func readSheets(path string) ([]sheet, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		return []sheet{{name: filepath.Base(path), rows: rows}}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.WrapParse("xlsx", path, err)
		}
		out = append(out, sheet{name: name, rows: rows})
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// extraction accumulates state across sheets so input order is global.
type extraction struct {
	cols     config.Columns
	out      Extraction
	order    int
	sawEmail bool
}

func (x *extraction) scanSheet(name string, rows [][]string) {
	i := 0
	for i < len(rows) {
		title := findRow(rows, i, isTitleRow)
		if title < 0 {
			return
		}
		header := findRow(rows, title+1, isHeaderRow)
		if header < 0 {
			return
		}
		// A title that is followed by another title before any header has no table.
		if next := findRow(rows, title+1, isTitleRow); next >= 0 && next < header {
			i = next
			continue
		}

		end := header + 1
		for end < len(rows) && !isBlankRow(rows[end]) && !isTitleRow(rows[end]) {
			end++
		}
		x.block(name, titleText(rows[title]), rows[header], rows[header+1:end])

		i = end
		if end < len(rows) && !isTitleRow(rows[end]) {
			i++
		}
	}
}

// columns maps each field to its position in a table, -1 when absent.
type columns struct {
	name, email, url, tel, addr, addrID, remarks int
}

func (x *extraction) block(sheetName, title string, headerRow []string, data [][]string) {
	header := make([]string, len(headerRow))
	for i, h := range headerRow {
		header[i] = textnorm.Header(h)
	}
	c := columns{
		name:    locate(header, x.cols.Name),
		email:   locate(header, x.cols.Email),
		url:     locate(header, x.cols.URL),
		tel:     locate(header, x.cols.Tel),
		addr:    locate(header, x.cols.Addr),
		addrID:  locate(header, x.cols.AddrID),
		remarks: locate(header, x.cols.Remarks),
	}

	table := Table{Sheet: sheetName, Title: title}
	if c.email >= 0 {
		x.sawEmail = true
	}
	switch {
	case c.email < 0:
		table.Reason = "no email column"
	case c.name < 0:
		table.Reason = "no name column"
	case c.url < 0:
		table.Reason = "no url column"
	}
	if table.Skipped() {
		x.out.Tables = append(x.out.Tables, table)
		return
	}

	repeatsHeader := func(row []string) bool {
		return row[c.name] == header[c.name] || row[c.email] == header[c.email]
	}
	for _, row := range forwardFill(data, len(header), repeatsHeader) {
		o := records.RawObservation{
			Name:       row[c.name],
			Email:      row[c.email],
			URL:        row[c.url],
			EventLabel: title,
			Phone:      textnorm.FixPhone(cell(row, c.tel)),
			Remarks:    cell(row, c.remarks),
			InputOrder: x.order,
		}
		o.Zip1, o.Address1 = textnorm.SplitAddress(cell(row, c.addr))
		o.Zip2, o.Address2 = textnorm.SplitAddress(cell(row, c.addrID))
		x.order++
		table.Rows++
		x.out.Observations = append(x.out.Observations, o)
	}
	x.out.Tables = append(x.out.Tables, table)
}

// forwardFill pads rows to width, cleans every cell and fills blank cells with
// the value above them, which is how merged cells read back. Rows matched by
// skip are dropped and do not feed the fill.
func forwardFill(data [][]string, width int, skip func([]string) bool) [][]string {
	out := make([][]string, 0, len(data))
	last := make([]string, width)
	for _, raw := range data {
		row := make([]string, width)
		for i := range width {
			if i < len(raw) {
				row[i] = textnorm.Clean(raw[i])
			}
		}
		if skip(row) {
			continue
		}
		for i, v := range row {
			if v == "" {
				row[i] = last[i]
			}
		}
		copy(last, row)
		out = append(out, row)
	}
	return out
}

func locate(header, candidates []string) int {
	for _, c := range candidates {
		want := textnorm.Header(c)
		for i, h := range header {
			if h == want && h != "" {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func findRow(rows [][]string, from int, match func([]string) bool) int {
	for i := from; i < len(rows); i++ {
		if match(rows[i]) {
			return i
		}
	}
	return -1
}

func isTitleRow(row []string) bool {
	for _, c := range row {
		if strings.HasPrefix(strings.TrimSpace(c), constants.TitleMarker) {
			return true
		}
	}
	return false
}

func isHeaderRow(row []string) bool {
	for _, c := range row {
		if strings.Contains(textnorm.Clean(c), constants.HeaderMarker) {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if textnorm.Clean(c) != "" {
			return false
		}
	}
	return true
}

// titleText returns the cleaned title of a title row. The list separator is
// substituted so the title survives as one label in the master's events cell.
func titleText(row []string) string {
	for _, c := range row {
		if t := strings.TrimSpace(c); strings.HasPrefix(t, constants.TitleMarker) {
			return strings.ReplaceAll(textnorm.Clean(t), constants.ListSeparator, constants.ListSeparatorSubstitute)
		}
	}
	return ""
}
