package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/normalize"
	"github.com/agentstation/custlist/pkg/records"
	"github.com/agentstation/custlist/pkg/serial"
)

var fixedNow = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

func newTestReconciler(t *testing.T) Reconciler {
	t.Helper()
	r, err := New(WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return r
}

func newTestIssuer(t *testing.T, start int, master []*records.MasterRecord) *serial.Issuer {
	t.Helper()
	used := make([]string, 0, len(master))
	for _, m := range master {
		used = append(used, m.Serial)
	}
	iss, err := serial.NewIssuer(serial.Config{Prefix: "C", Digits: 6, Start: start}, used)
	require.NoError(t, err)
	return iss
}

func aggregate(order int, name, email string, count int, events ...string) *records.PersonAggregate {
	return &records.PersonAggregate{
		Name:       name,
		Email:      email,
		Events:     records.NewLabelSet(events...),
		Count:      count,
		InputOrder: order,
	}
}

func bob(serialNo, count string, events ...string) *records.MasterRecord {
	return &records.MasterRecord{
		Serial: serialNo,
		Name:   "Bob",
		Email:  "b@x.com",
		Events: records.NewLabelSet(events...),
		Count:  count,
	}
}

func TestCreateUnknownPerson(t *testing.T) {
	r := newTestReconciler(t)
	iss := newTestIssuer(t, 1, nil)

	res, err := r.Reconcile(context.Background(), nil,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventY")}, iss)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	m := res.Records[0]
	assert.Equal(t, "C000001", m.Serial)
	assert.Equal(t, "EventY", m.Events.String())
	assert.Equal(t, "1", m.Count)
	assert.Empty(t, m.History)

	require.Len(t, res.Decisions, 1)
	assert.Equal(t, ActionCreated, res.Decisions[0].Action)
	assert.Equal(t, 1, res.Stats.Created)
}

func TestMergeNonOverlappingEvent(t *testing.T) {
	r := newTestReconciler(t)
	master := []*records.MasterRecord{bob("S1", "1", "EventY")}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(context.Background(), master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventZ")}, iss)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	m := res.Records[0]
	assert.Equal(t, "S1", m.Serial)
	assert.Equal(t, "EventY|EventZ", m.Events.String())
	assert.Equal(t, "2", m.Count)
	assert.Equal(t, records.History{"2026-03-09:updated"}, m.History)

	require.Len(t, res.Folded, 1)
	assert.Equal(t, ActionMerged, res.Decisions[0].Action)
	assert.Empty(t, iss.Issued(), "a merge must not consume a serial")

	// The caller's master is untouched.
	assert.Equal(t, "1", master[0].Count)
	assert.Empty(t, master[0].History)
}

func TestSiblingForOverlappingEvent(t *testing.T) {
	r := newTestReconciler(t)
	master := []*records.MasterRecord{bob("S1", "1", "EventY")}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(context.Background(), master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventY")}, iss)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "1", res.Records[0].Count)
	assert.Empty(t, res.Records[0].History)

	sib := res.Records[1]
	assert.NotEqual(t, "S1", sib.Serial)
	assert.Equal(t, "past record exists for same person/event (serial: S1)", sib.History.String())
	assert.Equal(t, "1", sib.Count)

	require.Len(t, res.Decisions, 1)
	assert.Equal(t, []string{"S1"}, res.Decisions[0].Related)
	assert.Len(t, res.Appended(), 1)
}

func TestSiblingCitesEveryOverlappingSerialSorted(t *testing.T) {
	r := newTestReconciler(t)
	master := []*records.MasterRecord{
		bob("S9", "1", "EventY"),
		bob("S2", "1", "EventQ"),
		bob("S4", "1", "EventY", "EventZ"),
	}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(context.Background(), master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventY", "EventZ")}, iss)
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	assert.Equal(t, "past record exists for same person/event (serial: S4, S9)", res.Records[3].History.String())
	assert.Equal(t, []string{"S4", "S9"}, res.Decisions[0].Related)
}

func TestMergeChecksEveryRecordOfIdentity(t *testing.T) {
	r := newTestReconciler(t)
	// The first record does not overlap but a later one does: this is a sibling, not a merge.
	master := []*records.MasterRecord{
		bob("S1", "1", "EventA"),
		bob("S2", "1", "EventB"),
	}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(context.Background(), master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventB")}, iss)
	require.NoError(t, err)
	assert.Equal(t, ActionSibling, res.Decisions[0].Action)
	assert.Equal(t, "1", res.Records[0].Count)
}

func TestMergeTargetsEarliestRecord(t *testing.T) {
	r := newTestReconciler(t)
	master := []*records.MasterRecord{
		bob("S7", "2", "EventA"),
		bob("S3", "1", "EventB"),
	}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(context.Background(), master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 3, "EventC")}, iss)
	require.NoError(t, err)

	assert.Equal(t, "S7", res.Decisions[0].Serial)
	assert.Equal(t, "5", res.Records[0].Count)
	assert.Equal(t, "1", res.Records[1].Count)
}

func TestCorruptCountTreatedAsZero(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	r := newTestReconciler(t)
	master := []*records.MasterRecord{bob("S1", "n/a", "EventY")}
	iss := newTestIssuer(t, 1, master)

	res, err := r.Reconcile(ctx, master,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 2, "EventZ")}, iss)
	require.NoError(t, err)

	assert.Equal(t, "2", res.Records[0].Count)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "S1")
	assert.Equal(t, 1, res.Stats.Corrupt)
	tl.AssertContains(t, "treating corrupt")
	tl.AssertContains(t, `"serial":"S1"`)
}

func TestIdempotentRerun(t *testing.T) {
	raw := []records.RawObservation{
		{Name: "Alice", Email: "a@x.com", EventLabel: "EventX", URL: "u1", InputOrder: 0},
		{Name: "Alice", Email: "a@x.com", EventLabel: "EventX", URL: "u2", InputOrder: 1},
		{Name: "Bob", Email: "b@x.com", EventLabel: "EventY", URL: "u3", InputOrder: 2},
		{Name: "Bob", Email: "b@x.com", EventLabel: "EventZ", URL: "u4", InputOrder: 3},
	}
	ctx := context.Background()
	r := newTestReconciler(t)

	first, err := r.Reconcile(ctx, nil, normalize.Normalize(ctx, raw).Aggregates, newTestIssuer(t, 1, nil))
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	second, err := r.Reconcile(ctx, first.Records, normalize.Normalize(ctx, raw).Aggregates, newTestIssuer(t, 3, first.Records))
	require.NoError(t, err)

	require.Len(t, second.Records, 4)
	for i, d := range second.Decisions {
		assert.Equal(t, ActionSibling, d.Action, "decision %d", i)
		orig := second.Records[i]
		assert.Equal(t, first.Records[i].Count, orig.Count, "original count must not change")
		sib := second.Records[2+i]
		assert.NotEqual(t, orig.Serial, sib.Serial)
		assert.Contains(t, sib.History.String(), orig.Serial)
	}
}

func TestCountConservationAcrossRuns(t *testing.T) {
	ctx := context.Background()
	r := newTestReconciler(t)

	var master []*records.MasterRecord
	want := 0
	for run := range 5 {
		count := run + 1
		want += count
		batch := []*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", count, fmt.Sprintf("Event%d", run))}

		res, err := r.Reconcile(ctx, master, batch, newTestIssuer(t, 1, master))
		require.NoError(t, err)
		master = res.Records

		require.Len(t, master, 1, "disjoint events never add a row")
		got, err := master[0].Occurrences()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, master[0].History, 4)
	assert.Equal(t, "Event0|Event1|Event2|Event3|Event4", master[0].Events.String())
}

func TestIdentityUniqueness(t *testing.T) {
	ctx := context.Background()
	r := newTestReconciler(t)
	master := []*records.MasterRecord{bob("S1", "1", "EventY")}
	batch := []*records.PersonAggregate{
		aggregate(0, "Bob", "b@x.com", 1, "EventY"),
		aggregate(1, "Carol", "c@x.com", 1, "EventY"),
		aggregate(2, "Dave", "d@x.com", 1, "EventQ"),
	}

	res, err := r.Reconcile(ctx, master, batch, newTestIssuer(t, 1, master))
	require.NoError(t, err)

	bySerial := map[string]*records.MasterRecord{}
	byKey := map[records.PersonKey][]*records.MasterRecord{}
	for _, m := range res.Records {
		require.NotContains(t, bySerial, m.Serial, "serials must be unique")
		bySerial[m.Serial] = m
		byKey[m.Key()] = append(byKey[m.Key()], m)
	}
	for key, group := range byKey {
		for _, later := range group[1:] {
			assert.Contains(t, later.History.String(), group[0].Serial, "sibling of %s must cite the original", key)
		}
	}
}

func TestSameIdentityTwiceInOneBatch(t *testing.T) {
	// Aggregates are normally unique per person, but a caller may pass several.
	r := newTestReconciler(t)
	batch := []*records.PersonAggregate{
		aggregate(0, "Bob", "b@x.com", 1, "EventY"),
		aggregate(1, "Bob", "b@x.com", 2, "EventZ"),
	}

	res, err := r.Reconcile(context.Background(), nil, batch, newTestIssuer(t, 1, nil))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "3", res.Records[0].Count)
	assert.Equal(t, []Action{ActionCreated, ActionMerged}, []Action{res.Decisions[0].Action, res.Decisions[1].Action})
	s, ok := res.SerialFor(records.PersonKey{Name: "Bob", Email: "b@x.com"})
	assert.True(t, ok)
	assert.Equal(t, "C000001", s)
}

func TestDeterministicOutput(t *testing.T) {
	master := []*records.MasterRecord{bob("S1", "1", "EventY", "EventA")}
	batch := []*records.PersonAggregate{
		aggregate(2, "Bob", "b@x.com", 1, "EventZ", "EventB"),
		aggregate(1, "Alice", "a@x.com", 1, "EventX"),
	}
	run := func() [][]string {
		res, err := newTestReconciler(t).Reconcile(context.Background(), master, batch, newTestIssuer(t, 1, master))
		require.NoError(t, err)
		rows := make([][]string, 0, len(res.Records))
		for _, m := range res.Records {
			rows = append(rows, m.Row())
		}
		return rows
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Equal(t, "EventA|EventB|EventY|EventZ", first[0][8])
	assert.Equal(t, "Alice", first[1][1], "aggregates are applied in input order")
}

func TestReconcileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestReconciler(t).Reconcile(ctx, nil,
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventY")}, newTestIssuer(t, 1, nil))
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
}

func TestOptions(t *testing.T) {
	_, err := New(WithClock(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithDateLayout(""))
	assert.True(t, errors.IsValidationError(err))

	r, err := New(WithClock(func() time.Time { return fixedNow }), WithDateLayout("20060102"))
	require.NoError(t, err)
	res, err := r.Reconcile(context.Background(), []*records.MasterRecord{bob("S1", "1", "EventY")},
		[]*records.PersonAggregate{aggregate(0, "Bob", "b@x.com", 1, "EventZ")}, newTestIssuer(t, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, "20260309:updated", res.Records[0].History.String())

	_, err = r.Reconcile(context.Background(), nil, nil, nil)
	assert.True(t, errors.IsValidationError(err))
}
