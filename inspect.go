package custlist

import (
	"cmp"
	"context"
	"os"
	"slices"

	"github.com/agentstation/custlist/internal/audit"
	"github.com/agentstation/custlist/internal/config"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
	"github.com/agentstation/custlist/pkg/store"
)

// MasterStats summarizes the persisted master.
type MasterStats struct {
	Master        string       `json:"master" yaml:"master"`
	Records       int          `json:"records" yaml:"records"`
	Identities    int          `json:"identities" yaml:"identities"`
	SiblingGroups int          `json:"sibling_groups" yaml:"sibling_groups"`
	Occurrences   int          `json:"occurrences" yaml:"occurrences"`
	CorruptCounts int          `json:"corrupt_counts" yaml:"corrupt_counts"`
	NextSerial    int          `json:"next_serial" yaml:"next_serial"`
	Events        []EventCount `json:"events" yaml:"events"`

	// Runs holds the latest journaled runs when an audit journal is configured.
	Runs []audit.Run `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// EventCount is the number of records carrying one event label.
type EventCount struct {
	Event   string `json:"event" yaml:"event"`
	Records int    `json:"records" yaml:"records"`
}

// Inspect loads the master named by the settings and computes its statistics.
// At most top events and runs entries are returned; zero means all.
func Inspect(ctx context.Context, top int, opts ...Option) (*MasterStats, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	settings := o.settings
	if settings == nil {
		if settings, err = config.Load(o.settingsFile); err != nil {
			return nil, err
		}
	}

	master, err := store.Load(settings.Paths.OutputExcel)
	if err != nil {
		return nil, err
	}
	stats := Stats(master, top)
	stats.Master = settings.Paths.OutputExcel
	stats.NextSerial = settings.Serial.Start

	if db := settings.Paths.AuditDB; db != "" {
		if _, err := os.Stat(db); err == nil {
			stats.Runs, err = recentRuns(ctx, db, top)
			if err != nil {
				logging.FromContext(ctx).Warn().Err(err).Msg("audit journal unreadable")
			}
		}
	}
	return stats, nil
}

// Stats computes master statistics. Events are ordered by record count, then name.
func Stats(master []*records.MasterRecord, top int) *MasterStats {
	stats := &MasterStats{Records: len(master), Events: []EventCount{}}
	identities := make(map[records.PersonKey]int)
	events := make(map[string]int)

	for _, m := range master {
		identities[m.Key()]++
		n, err := m.Occurrences()
		if err != nil {
			stats.CorruptCounts++
		}
		stats.Occurrences += n
		for _, e := range m.Events.Values() {
			events[e]++
		}
	}

	stats.Identities = len(identities)
	for _, n := range identities {
		if n > 1 {
			stats.SiblingGroups++
		}
	}
	for e, n := range events {
		stats.Events = append(stats.Events, EventCount{Event: e, Records: n})
	}
	slices.SortFunc(stats.Events, func(a, b EventCount) int {
		if c := cmp.Compare(b.Records, a.Records); c != 0 {
			return c
		}
		return cmp.Compare(a.Event, b.Event)
	})
	if top > 0 && len(stats.Events) > top {
		stats.Events = stats.Events[:top]
	}
	return stats
}

// SerialHistory returns the journaled decisions that created, merged into or
// cited serial. It returns a NotFoundError when the journal has none.
func SerialHistory(ctx context.Context, serial string, opts ...Option) ([]audit.Entry, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	settings := o.settings
	if settings == nil {
		if settings, err = config.Load(o.settingsFile); err != nil {
			return nil, err
		}
	}
	if settings.Paths.AuditDB == "" {
		return nil, errors.NewConfigError("audit", "paths.audit_db is not set", nil)
	}
	j, err := audit.Open(settings.Paths.AuditDB)
	if err != nil {
		return nil, err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.History(ctx, serial)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewNotFoundError("journaled serial", serial)
	}
	return entries, nil
}

func recentRuns(ctx context.Context, db string, limit int) ([]audit.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	j, err := audit.Open(db)
	if err != nil {
		return nil, err
	}
	defer func() { _ = j.Close() }()
	return j.Runs(ctx, limit)
}
