// Package store reads and writes the persisted master and the flat exports.
//
// Writes are staged: every output is first written to a temporary file next to
// its destination, and only a fully staged set is renamed into place. A failed
// run therefore leaves every persisted file as it was.
package store

import (
	"encoding/csv"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/custlist/internal/textnorm"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/records"
)

const bom = "\ufeff"

// Load reads the master at path. A missing file is an empty master.
// The format follows the extension: .xlsx via excelize, anything else as CSV.
func Load(path string) ([]*records.MasterRecord, error) {
	if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var (
		rows [][]string
		err  error
	)
	if IsWorkbook(path) {
		rows, err = readWorkbook(path)
	} else {
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return decode(rows), nil
}

// IsWorkbook reports whether path names an .xlsx file.
func IsWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	return rows, nil
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
		var perr *csv.ParseError
		if stderrors.As(err, &perr) {
			return nil, &errors.ParseError{Format: "csv", File: path, Line: perr.Line, Column: perr.Column, Message: perr.Err.Error(), Err: err}
		}
		return nil, errors.WrapParse("csv", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], bom)
	}
	return rows, nil
}

func decode(rows [][]string) []*records.MasterRecord {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = textnorm.Clean(h)
	}
	index := records.HeaderIndex(header)

	out := make([]*records.MasterRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cleaned := make([]string, len(row))
		for i, c := range row {
			cleaned[i] = textnorm.Clean(c)
		}
		if !slices.ContainsFunc(cleaned, func(c string) bool { return c != "" }) {
			continue
		}
		out = append(out, records.RecordFromRow(index, cleaned))
	}
	return out
}

// Serials lists the serials present in master, skipping blanks.
func Serials(master []*records.MasterRecord) []string {
	out := make([]string, 0, len(master))
	for _, m := range master {
		if m.Serial != "" {
			out = append(out, m.Serial)
		}
	}
	return out
}
