package store

import (
	"github.com/agentstation/custlist/pkg/records"
)

// ExportTable builds the flat per-URL export. Each observation is annotated
// with the serial resolved for its person.
func ExportTable(path string, rows []records.RawObservation, serialFor func(records.PersonKey) string) Table {
	t := Table{Path: path, Header: records.ExportColumns, Rows: make([][]string, 0, len(rows))}
	for _, o := range rows {
		t.Rows = append(t.Rows, records.ExportRow(serialFor(o.Key()), o))
	}
	return t
}

// FoldedTable builds the export of aggregates merged into existing records,
// annotated with the serial of the record that absorbed them.
func FoldedTable(path string, folded []*records.PersonAggregate, serialFor func(records.PersonKey) string) Table {
	t := Table{Path: path, Header: records.MasterColumns, Rows: make([][]string, 0, len(folded))}
	for _, p := range folded {
		t.Rows = append(t.Rows, records.AggregateRow(serialFor(p.Key()), p))
	}
	return t
}
