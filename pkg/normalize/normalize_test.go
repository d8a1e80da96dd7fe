package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
)

func obs(order int, name, email, event, url string) records.RawObservation {
	return records.RawObservation{Name: name, Email: email, EventLabel: event, URL: url, InputOrder: order}
}

func TestNormalizeExactRepeat(t *testing.T) {
	batch := Normalize(context.Background(), []records.RawObservation{
		obs(0, "Alice", "a@x.com", "EventX", "url1"),
		obs(1, "Alice", "a@x.com", "EventX", "url1"),
	})

	require.Len(t, batch.Aggregates, 1)
	assert.Equal(t, 1, batch.Aggregates[0].Count)
	assert.Equal(t, 1, batch.Stats.Duplicates)
	assert.Len(t, batch.Rows, 1)
}

func TestNormalizeCountsDistinctNonEmptyURLs(t *testing.T) {
	batch := Normalize(context.Background(), []records.RawObservation{
		obs(0, "Alice", "a@x.com", "EventX", "url1"),
		obs(1, "Alice", "a@x.com", "EventY", "url1"),
		obs(2, "Alice", "a@x.com", "EventY", ""),
		obs(3, "Alice", "a@x.com", "EventZ", "url2"),
	})

	require.Len(t, batch.Aggregates, 1)
	agg := batch.Aggregates[0]
	assert.Equal(t, 2, agg.Count)
	assert.Equal(t, []string{"url1", "url2"}, agg.URLs)
	assert.Equal(t, []string{"EventX", "EventY", "EventZ"}, agg.Events.Values())
	assert.Len(t, batch.Rows, 4)
}

func TestNormalizeSkipsIncompleteRows(t *testing.T) {
	batch := Normalize(context.Background(), []records.RawObservation{
		obs(0, "Alice", "", "EventX", "url1"),
		obs(1, "", "b@x.com", "EventX", "url2"),
		obs(2, "Carol", "c@x.com", "EventX", "url3"),
	})

	assert.Equal(t, Stats{Input: 3, Kept: 1, MissingEmail: 1, MissingName: 1}, batch.Stats)
	require.Len(t, batch.Aggregates, 1)
	assert.Equal(t, "Carol", batch.Aggregates[0].Name)
}

func TestNormalizeOrdersByInputOrder(t *testing.T) {
	in := []records.RawObservation{
		obs(5, "Bob", "b@x.com", "EventY", "u3"),
		obs(1, "Alice", "a@x.com", "EventX", "u1"),
		obs(3, "Bob", "b@x.com", "EventZ", "u2"),
	}
	batch := Normalize(context.Background(), in)

	require.Len(t, batch.Aggregates, 2)
	assert.Equal(t, "Alice", batch.Aggregates[0].Name)
	assert.Equal(t, "Bob", batch.Aggregates[1].Name)
	assert.Equal(t, 3, batch.Aggregates[1].InputOrder)
	assert.Equal(t, []string{"EventZ", "EventY"}, batch.Aggregates[1].Events.Values())
	assert.Equal(t, 5, in[0].InputOrder, "input must not be reordered")
}

func TestNormalizeFirstNonEmptyRepresentative(t *testing.T) {
	first := obs(0, "Alice", "a@x.com", "EventX", "u1")
	second := obs(1, "Alice", "a@x.com", "EventY", "u2")
	second.Phone = "0311112222"
	second.Remarks = "vip"
	third := obs(2, "Alice", "a@x.com", "EventZ", "u3")
	third.Phone = "0900000000"

	batch := Normalize(context.Background(), []records.RawObservation{first, second, third})

	require.Len(t, batch.Aggregates, 1)
	assert.Equal(t, "0311112222", batch.Aggregates[0].Phone)
	assert.Equal(t, "vip", batch.Aggregates[0].Remarks)
}

func TestNormalizeLogsSummary(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	Normalize(ctx, []records.RawObservation{obs(0, "Alice", "", "EventX", "u1")})

	tl.AssertContains(t, "skipping row without email")
	tl.AssertContains(t, "normalized batch")
}
