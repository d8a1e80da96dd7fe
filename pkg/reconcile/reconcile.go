// Package reconcile matches a normalized batch against the persisted master.
//
// Each person aggregate falls into exactly one case:
//
//   - created: no record carries the person's (name, email); a new record with
//     a fresh serial is appended.
//   - sibling: some record of the person shares an event label with the
//     aggregate; the existing records stay untouched and a new record citing
//     every overlapping serial is appended.
//   - merged: records of the person exist but none overlaps; the earliest one
//     absorbs the aggregate's count and events and gains an "updated" note.
//
// Identity is keyed on (name, email) only. Records appended earlier in the same
// batch take part in matching.
package reconcile

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
)

// Issuer hands out serials for new records.
type Issuer interface {
	Get(name, email string) string
}

// Reconciler applies a batch to the master.
type Reconciler interface {
	// Reconcile returns the master after applying batch. The master records
	// passed in are not modified; the result holds copies.
	Reconcile(ctx context.Context, master []*records.MasterRecord, batch []*records.PersonAggregate, issuer Issuer) (*Result, error)
}

type reconciler struct {
	opts *options
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{opts: o}, nil
}

// state is the working set of one Reconcile call.
type state struct {
	records []*records.MasterRecord
	index   map[records.PersonKey][]int
	today   string
}

func (s *state) add(m *records.MasterRecord) {
	key := m.Key()
	s.index[key] = append(s.index[key], len(s.records))
	s.records = append(s.records, m)
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, master []*records.MasterRecord, batch []*records.PersonAggregate, issuer Issuer) (*Result, error) {
	if issuer == nil {
		return nil, &errors.ValidationError{Field: "issuer", Message: "cannot be nil"}
	}
	logger := logging.FromContext(ctx)

	now := r.opts.clock()
	result := newResult(now)
	st := &state{
		records: make([]*records.MasterRecord, 0, len(master)+len(batch)),
		index:   make(map[records.PersonKey][]int, len(master)),
		today:   now.Format(r.opts.dateLayout),
	}
	for _, m := range master {
		st.add(clone(m))
	}
	result.Stats.Existing = len(st.records)

	ordered := slices.Clone(batch)
	slices.SortStableFunc(ordered, func(a, b *records.PersonAggregate) int {
		return a.InputOrder - b.InputOrder
	})

	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		var d Decision
		idxs := st.index[p.Key()]
		overlapping := overlaps(st, idxs, p)
		switch {
		case len(idxs) == 0:
			d = r.create(st, p, issuer)
		case len(overlapping) > 0:
			d = r.sibling(st, p, issuer, overlapping)
		default:
			var warn string
			d, warn = r.merge(st, idxs[0], p)
			if warn != "" {
				result.Warnings = append(result.Warnings, warn)
				result.Stats.Corrupt++
				logging.FromContext(logging.WithSerial(ctx, d.Serial)).Warn().Msg(warn)
			}
			result.Folded = append(result.Folded, p)
		}
		result.record(d)

		logging.FromContext(logging.WithSerial(ctx, d.Serial)).Debug().
			Str("action", string(d.Action)).
			Strs("related", d.Related).
			Str("person", p.Key().String()).
			Msg("reconciled aggregate")
	}

	result.Records = st.records
	result.finalize(r.opts.clock())

	logger.Info().
		Int("existing", result.Stats.Existing).
		Int("created", result.Stats.Created).
		Int("siblings", result.Stats.Siblings).
		Int("merged", result.Stats.Merged).
		Int("warnings", len(result.Warnings)).
		Msg("reconciled batch")
	return result, nil
}

// overlaps returns the serials of the indexed records sharing an event with p.
func overlaps(st *state, idxs []int, p *records.PersonAggregate) []string {
	var serials []string
	for _, i := range idxs {
		if st.records[i].Events.Intersects(p.Events) {
			serials = append(serials, st.records[i].Serial)
		}
	}
	slices.Sort(serials)
	return slices.Compact(serials)
}

func (r *reconciler) create(st *state, p *records.PersonAggregate, issuer Issuer) Decision {
	m := records.FromAggregate(issuer.Get(p.Name, p.Email), p)
	st.add(m)
	return Decision{Key: p.Key(), Action: ActionCreated, Serial: m.Serial}
}

func (r *reconciler) sibling(st *state, p *records.PersonAggregate, issuer Issuer, related []string) Decision {
	m := records.FromAggregate(issuer.Get(p.Name, p.Email), p)
	m.History.Append(records.PastRecordNote(related))
	st.add(m)
	return Decision{Key: p.Key(), Action: ActionSibling, Serial: m.Serial, Related: related}
}

// merge folds p into the record at index i. A stored count that does not parse
// is taken as zero and reported through the returned warning.
func (r *reconciler) merge(st *state, i int, p *records.PersonAggregate) (Decision, string) {
	m := st.records[i]

	var warn string
	before, err := m.Occurrences()
	if err != nil {
		warn = fmt.Sprintf("treating corrupt %v as 0", err)
		before = 0
	}
	m.SetOccurrences(before + p.Count)
	m.Events = records.NewLabelSet(m.Events.Union(p.Events).Sorted()...)
	m.History.Append(records.UpdatedNote(st.today))

	return Decision{Key: p.Key(), Action: ActionMerged, Serial: m.Serial}, warn
}

func clone(m *records.MasterRecord) *records.MasterRecord {
	c := *m
	c.Events = records.NewLabelSet(m.Events.Values()...)
	c.History = slices.Clone(m.History)
	return &c
}
