package records

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/custlist/pkg/constants"
)

// History is the append-only annotation log of a master record.
type History []string

// ParseHistory decodes a persisted pipe-joined history cell.
func ParseHistory(cell string) History {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var h History
	for _, part := range strings.Split(cell, constants.ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			h = append(h, part)
		}
	}
	return h
}

// Append adds an annotation at the end of the log. Blank notes are ignored.
func (h *History) Append(note string) {
	if note = strings.TrimSpace(note); note != "" {
		*h = append(*h, note)
	}
}

// String encodes the history for persistence.
func (h History) String() string {
	return strings.Join(h, constants.ListSeparator)
}

// UpdatedNote is the annotation appended when a record absorbs new events.
// date is already formatted, normally with constants.DateLayout.
func UpdatedNote(date string) string {
	return date + ":updated"
}

// PastRecordNote is the annotation carried by a sibling row created because the
// same person was already billed for one of the same events. Serials are sorted
// and deduplicated so the note is stable across runs.
func PastRecordNote(serials []string) string {
	cited := slices.Clone(serials)
	slices.Sort(cited)
	cited = slices.Compact(cited)
	return fmt.Sprintf("past record exists for same person/event (serial: %s)",
		strings.Join(cited, constants.SerialSeparator))
}
