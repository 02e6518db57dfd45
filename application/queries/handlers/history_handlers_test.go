package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/application/queries"
	"decisionmap/application/queries/bus"
	"decisionmap/domain/history"
	pkgerrors "decisionmap/pkg/errors"
)

type stubHistory struct {
	mu       sync.Mutex
	records  []history.DecisionRecord
	allCalls int
	lastOpts history.ListOptions
}

func (s *stubHistory) Save(context.Context, history.DecisionRecord) error { return nil }

func (s *stubHistory) GetByID(_ context.Context, id string) (history.DecisionRecord, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return history.DecisionRecord{}, pkgerrors.ErrRecordNotFound
}

func (s *stubHistory) List(_ context.Context, opts history.ListOptions) (history.Page, error) {
	s.lastOpts = opts
	return history.Page{}, nil
}

func (s *stubHistory) Delete(context.Context, string) error { return nil }

func (s *stubHistory) All(context.Context) ([]history.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allCalls++
	return s.records, nil
}

type mapCache struct {
	items map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.items[key] = value
	return nil
}

type countingMetrics struct {
	outcomes []string
}

func (m *countingMetrics) Query(name, outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, name+":"+outcome)
}

func TestHistoryQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("Should default the page size and return an empty slice", func(t *testing.T) {
		// Arrange
		repo := &stubHistory{}
		b := bus.NewQueryBus()
		require.NoError(t, RegisterHistoryQueries(b, repo, nil, 0, nil))

		// Act
		res, err := b.Ask(ctx, queries.ListRecordsQuery{Domain: "hiring"})

		// Assert
		require.NoError(t, err)
		page := res.(history.Page)
		assert.NotNil(t, page.Records)
		assert.Equal(t, history.ListOptions{Domain: "hiring", Limit: DefaultListLimit}, repo.lastOpts)
	})

	t.Run("Should return records by id and not found otherwise", func(t *testing.T) {
		repo := &stubHistory{records: []history.DecisionRecord{{ID: "rec-1"}}}
		metrics := &countingMetrics{}
		b := bus.NewQueryBus()
		require.NoError(t, RegisterHistoryQueries(b, repo, nil, 0, metrics))

		res, err := b.Ask(ctx, queries.GetRecordQuery{RecordID: "rec-1"})
		require.NoError(t, err)
		assert.Equal(t, "rec-1", res.(history.DecisionRecord).ID)

		_, err = b.Ask(ctx, queries.GetRecordQuery{RecordID: "nope"})
		assert.True(t, errors.Is(err, pkgerrors.ErrRecordNotFound))
		assert.Equal(t, []string{"GetRecordQuery:ok", "GetRecordQuery:error"}, metrics.outcomes)
	})

	t.Run("Should cache the hidden rule report", func(t *testing.T) {
		repo := &stubHistory{}
		b := bus.NewQueryBus()
		require.NoError(t, RegisterHistoryQueries(b, repo, &mapCache{items: map[string]interface{}{}}, 60, nil))

		first, err := b.Ask(ctx, queries.HiddenRuleReportQuery{})
		require.NoError(t, err)
		second, err := b.Ask(ctx, queries.HiddenRuleReportQuery{})
		require.NoError(t, err)

		assert.Equal(t, 1, repo.allCalls)
		assert.Equal(t, first, second)
		assert.Empty(t, first.(history.HiddenRuleReport).Rules)
	})

	t.Run("Should reject invalid queries", func(t *testing.T) {
		b := bus.NewQueryBus()
		require.NoError(t, RegisterHistoryQueries(b, &stubHistory{}, nil, 0, nil))

		_, err := b.Ask(ctx, queries.ListRecordsQuery{Limit: queries.MaxListLimit + 1})
		assert.True(t, errors.Is(err, bus.ErrValidationFailed))

		_, err = b.Ask(ctx, queries.GetRecordQuery{})
		assert.True(t, errors.Is(err, bus.ErrValidationFailed))
	})
}
