package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/custlist/pkg/records"
)

// Action is what the engine did with one aggregate.
type Action string

const (
	// ActionCreated means the person was unknown and got a new record.
	ActionCreated Action = "created"

	// ActionSibling means the person was already recorded for one of the same
	// events, so an annotated sibling record was appended.
	ActionSibling Action = "sibling"

	// ActionMerged means the aggregate was folded into the person's earliest record.
	ActionMerged Action = "merged"
)

// Decision records the outcome for one aggregate.
type Decision struct {
	Key    records.PersonKey `json:"key" yaml:"key"`
	Action Action            `json:"action" yaml:"action"`

	// Serial is the record that now carries the aggregate: the new record for
	// created and sibling, the existing one for merged.
	Serial string `json:"serial" yaml:"serial"`

	// Related lists the overlapping serials a sibling cites.
	Related []string `json:"related,omitempty" yaml:"related,omitempty"`
}

// Result represents the outcome of a reconciliation.
type Result struct {
	// Records is the full master after the batch: input records first, in
	// their original order, then appended records in batch order.
	Records []*records.MasterRecord

	Decisions []Decision

	// Folded holds the aggregates merged into existing records.
	Folded []*records.PersonAggregate

	Warnings []string

	Stats    Stats
	Metadata Metadata

	serials map[records.PersonKey]string
}

// Stats counts decisions by action.
type Stats struct {
	Existing int `json:"existing" yaml:"existing"`
	Created  int `json:"created" yaml:"created"`
	Siblings int `json:"siblings" yaml:"siblings"`
	Merged   int `json:"merged" yaml:"merged"`
	Corrupt  int `json:"corrupt_counts" yaml:"corrupt_counts"`
}

// Metadata describes the reconciliation run.
type Metadata struct {
	StartTime utc.Time      `json:"start_time" yaml:"start_time"`
	EndTime   utc.Time      `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

func newResult(start time.Time) *Result {
	return &Result{
		Decisions: []Decision{},
		Warnings:  []string{},
		Metadata:  Metadata{StartTime: utc.Time{Time: start}},
		serials:   make(map[records.PersonKey]string),
	}
}

func (r *Result) record(d Decision) {
	r.Decisions = append(r.Decisions, d)
	r.serials[d.Key] = d.Serial
	switch d.Action {
	case ActionCreated:
		r.Stats.Created++
	case ActionSibling:
		r.Stats.Siblings++
	case ActionMerged:
		r.Stats.Merged++
	}
}

func (r *Result) finalize(end time.Time) {
	r.Metadata.EndTime = utc.Time{Time: end}
	r.Metadata.Duration = end.Sub(r.Metadata.StartTime.Time)
}

// SerialFor returns the serial resolved for key in this batch.
func (r *Result) SerialFor(key records.PersonKey) (string, bool) {
	s, ok := r.serials[key]
	return s, ok
}

// Appended returns the records added by this batch.
func (r *Result) Appended() []*records.MasterRecord {
	return r.Records[r.Stats.Existing:]
}

// Summary returns a one-line description of the result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d created, %d siblings, %d merged, %d warnings",
		r.Stats.Created, r.Stats.Siblings, r.Stats.Merged, len(r.Warnings))
}
