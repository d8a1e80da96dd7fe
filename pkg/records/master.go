package records

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names of the persisted master store, in canonical order.
const (
	ColSerial   = "serial"
	ColName     = "name"
	ColEmail    = "email"
	ColPhone    = "phone"
	ColZip1     = "zip1"
	ColAddress1 = "address1"
	ColZip2     = "zip2"
	ColAddress2 = "address2"
	ColEvents   = "eventTitles"
	ColCount    = "occurrenceCount"
	ColRemarks  = "remarks"
	ColHistory  = "history"
	ColURL      = "url"
)

// MasterColumns is the canonical column order of the master snapshot.
var MasterColumns = []string{
	ColSerial, ColName, ColEmail, ColPhone, ColZip1, ColAddress1,
	ColZip2, ColAddress2, ColEvents, ColCount, ColRemarks, ColHistory,
}

// ExportColumns is the column order of the flat per-URL export.
var ExportColumns = []string{
	ColSerial, ColName, ColEmail, ColPhone, ColZip1, ColAddress1,
	ColZip2, ColAddress2, ColEvents, ColRemarks, ColURL,
}

// MasterRecord is one row of the persisted master store.
//
// Count is kept as the text found on disk: a corrupt value must survive a
// load/save cycle untouched unless the engine actually rewrites it.
type MasterRecord struct {
	Serial   string
	Name     string
	Email    string
	Phone    string
	Zip1     string
	Address1 string
	Zip2     string
	Address2 string
	Events   LabelSet
	Count    string
	Remarks  string
	History  History
}

// Key returns the identity of the record.
func (m *MasterRecord) Key() PersonKey {
	return PersonKey{Name: m.Name, Email: m.Email}
}

// Occurrences parses the stored count. A blank cell counts as zero.
func (m *MasterRecord) Occurrences() (int, error) {
	text := strings.TrimSpace(m.Count)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("occurrence count %q of %s: %w", m.Count, m.Serial, err)
	}
	return n, nil
}

// SetOccurrences stores n as text.
func (m *MasterRecord) SetOccurrences(n int) {
	m.Count = strconv.Itoa(n)
}

// FromAggregate builds an unsaved master record carrying p's data.
func FromAggregate(serial string, p *PersonAggregate) *MasterRecord {
	m := &MasterRecord{
		Serial:   serial,
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
		Zip1:     p.Zip1,
		Address1: p.Address1,
		Zip2:     p.Zip2,
		Address2: p.Address2,
		Events:   NewLabelSet(p.Events.Values()...),
		Remarks:  p.Remarks,
	}
	m.SetOccurrences(p.Count)
	return m
}

// Row encodes the record in MasterColumns order.
func (m *MasterRecord) Row() []string {
	return []string{
		m.Serial, m.Name, m.Email, m.Phone, m.Zip1, m.Address1,
		m.Zip2, m.Address2, m.Events.String(), m.Count, m.Remarks, m.History.String(),
	}
}

// RecordFromRow decodes a stored row using header to locate columns.
// Unknown columns are ignored and missing ones read as empty.
func RecordFromRow(header map[string]int, row []string) *MasterRecord {
	cell := func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return &MasterRecord{
		Serial:   cell(ColSerial),
		Name:     cell(ColName),
		Email:    cell(ColEmail),
		Phone:    cell(ColPhone),
		Zip1:     cell(ColZip1),
		Address1: cell(ColAddress1),
		Zip2:     cell(ColZip2),
		Address2: cell(ColAddress2),
		Events:   ParseLabels(cell(ColEvents)),
		Count:    cell(ColCount),
		Remarks:  cell(ColRemarks),
		History:  ParseHistory(cell(ColHistory)),
	}
}

// HeaderIndex maps column names to positions, first occurrence wins.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := idx[h]; !seen && h != "" {
			idx[h] = i
		}
	}
	return idx
}

// ExportRow encodes an observation for the flat export, annotated with serial.
func ExportRow(serial string, o RawObservation) []string {
	return []string{
		serial, o.Name, o.Email, o.Phone, o.Zip1, o.Address1,
		o.Zip2, o.Address2, o.EventLabel, o.Remarks, o.URL,
	}
}

// AggregateRow encodes a batch aggregate in MasterColumns order with an empty history.
func AggregateRow(serial string, p *PersonAggregate) []string {
	return []string{
		serial, p.Name, p.Email, p.Phone, p.Zip1, p.Address1,
		p.Zip2, p.Address2, p.Events.String(), strconv.Itoa(p.Count), p.Remarks, "",
	}
}
