// Package normalize turns the raw observations of one run into per-person aggregates.
package normalize

import (
	"context"
	"slices"

	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
)

// Batch is the normalized form of one run's input.
type Batch struct {
	// Aggregates are ordered by first appearance of each person.
	Aggregates []*records.PersonAggregate

	// Rows are the surviving deduplicated observations in input order.
	Rows []records.RawObservation

	Stats Stats
}

// Stats counts what the normalizer kept and dropped.
type Stats struct {
	Input        int `json:"input" yaml:"input"`
	Kept         int `json:"kept" yaml:"kept"`
	Duplicates   int `json:"duplicates" yaml:"duplicates"`
	MissingEmail int `json:"missing_email" yaml:"missing_email"`
	MissingName  int `json:"missing_name" yaml:"missing_name"`
}

// fullKey identifies an exact repeat of an observation.
type fullKey struct {
	name, email, event, url string
}

// Normalize deduplicates obs and groups the survivors by person.
// The input slice is not modified.
func Normalize(ctx context.Context, obs []records.RawObservation) *Batch {
	logger := logging.FromContext(ctx)

	ordered := slices.Clone(obs)
	slices.SortStableFunc(ordered, func(a, b records.RawObservation) int {
		return a.InputOrder - b.InputOrder
	})

	batch := &Batch{Stats: Stats{Input: len(ordered)}}
	seen := make(map[fullKey]struct{}, len(ordered))
	byPerson := make(map[records.PersonKey]*records.PersonAggregate)
	urls := make(map[records.PersonKey]map[string]struct{})

	for _, o := range ordered {
		switch {
		case o.Email == "":
			batch.Stats.MissingEmail++
			logger.Debug().Int("input_order", o.InputOrder).Str("name", o.Name).Msg("skipping row without email")
			continue
		case o.Name == "":
			batch.Stats.MissingName++
			logger.Debug().Int("input_order", o.InputOrder).Str("email", o.Email).Msg("skipping row without name")
			continue
		}

		fk := fullKey{o.Name, o.Email, o.EventLabel, o.URL}
		if _, dup := seen[fk]; dup {
			batch.Stats.Duplicates++
			continue
		}
		seen[fk] = struct{}{}
		batch.Rows = append(batch.Rows, o)

		key := o.Key()
		agg, ok := byPerson[key]
		if !ok {
			agg = &records.PersonAggregate{Name: o.Name, Email: o.Email, InputOrder: o.InputOrder}
			byPerson[key] = agg
			urls[key] = make(map[string]struct{})
			batch.Aggregates = append(batch.Aggregates, agg)
		}
		absorb(agg, o, urls[key])
	}

	batch.Stats.Kept = len(batch.Rows)
	logger.Info().
		Int("input", batch.Stats.Input).
		Int("kept", batch.Stats.Kept).
		Int("duplicates", batch.Stats.Duplicates).
		Int("missing_email", batch.Stats.MissingEmail).
		Int("missing_name", batch.Stats.MissingName).
		Int("persons", len(batch.Aggregates)).
		Msg("normalized batch")
	return batch
}

func absorb(agg *records.PersonAggregate, o records.RawObservation, urls map[string]struct{}) {
	agg.Events.Add(o.EventLabel)

	if o.URL != "" {
		if _, ok := urls[o.URL]; !ok {
			urls[o.URL] = struct{}{}
			agg.URLs = append(agg.URLs, o.URL)
			agg.Count++
		}
	}

	firstNonEmpty(&agg.Phone, o.Phone)
	firstNonEmpty(&agg.Zip1, o.Zip1)
	firstNonEmpty(&agg.Address1, o.Address1)
	firstNonEmpty(&agg.Zip2, o.Zip2)
	firstNonEmpty(&agg.Address2, o.Address2)
	firstNonEmpty(&agg.Remarks, o.Remarks)
}

func firstNonEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
