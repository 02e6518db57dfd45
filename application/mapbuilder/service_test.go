package mapbuilder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"decisionmap/application/rewrite"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/domain/events"
	"decisionmap/domain/grounding"
	"decisionmap/domain/history"
	"decisionmap/pkg/common"
	pkgerrors "decisionmap/pkg/errors"
)

// MockExtractor is a mock implementation of Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, in entities.DecisionInput) (entities.ExtractedDecision, bool) {
	args := m.Called(ctx, in)
	return args.Get(0).(entities.ExtractedDecision), args.Bool(1)
}

// MockPublisher is a mock implementation of ports.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type fakeEnricher struct {
	report rewrite.Report
	seen   rewrite.RewriteContext
}

func (f *fakeEnricher) Enrich(_ context.Context, m *aggregates.DecisionMap, rc rewrite.RewriteContext) (*aggregates.DecisionMap, rewrite.Report) {
	f.seen = rc
	return m.Clone(), f.report
}

type memoryHistory struct {
	records []history.DecisionRecord
	err     error
	ctxErr  error
	bounded bool
}

func (h *memoryHistory) Save(ctx context.Context, r history.DecisionRecord) error {
	h.ctxErr = ctx.Err()
	_, h.bounded = ctx.Deadline()
	if h.err != nil {
		return h.err
	}
	if h.ctxErr != nil {
		return h.ctxErr
	}
	h.records = append(h.records, r)
	return nil
}

func (h *memoryHistory) GetByID(context.Context, string) (history.DecisionRecord, error) {
	return history.DecisionRecord{}, pkgerrors.ErrRecordNotFound
}

func (h *memoryHistory) List(context.Context, history.ListOptions) (history.Page, error) {
	return history.Page{Records: h.records}, nil
}

func (h *memoryHistory) Delete(context.Context, string) error { return nil }

func (h *memoryHistory) All(context.Context) ([]history.DecisionRecord, error) {
	return h.records, nil
}

type recordingMetrics struct {
	built    int
	llmUsed  bool
	domain   string
	fallback []string
}

func (m *recordingMetrics) MapBuilt(domain string, llmUsed bool, _ time.Duration) {
	m.built++
	m.domain = domain
	m.llmUsed = llmUsed
}
func (m *recordingMetrics) LLMCall(string, string)      {}
func (m *recordingMetrics) Fallback(stage string)       { m.fallback = append(m.fallback, stage) }
func (m *recordingMetrics) RewriteCache(bool)           {}
func (m *recordingMetrics) NodesRewritten(string, int) {}
func (m *recordingMetrics) Query(string, string, time.Duration) {}

func hiringInput() entities.DecisionInput {
	return entities.DecisionInput{
		Domain:           valueobjects.DomainHiring,
		Title:            "Нанять первого сотрудника",
		CurrentStateText: "Команда из двух основателей не успевает",
		Options: []entities.Option{
			{ID: "A", Label: "Нанять в штат"},
			{ID: "B", Label: "Подрядчик"},
			{ID: "C", Label: "Подождать"},
		},
		Constraints: []string{"Бюджет 300 тысяч в месяц"},
	}
}

func modelFacts() entities.ExtractedDecision {
	facts := entities.ExtractedDecision{
		Domain:         "Найм",
		Actors:         []string{"основатели"},
		KeyConstraints: []string{"Бюджет 300 тысяч в месяц"},
	}
	facts.Normalize()
	return facts
}

func countByType(nodes []entities.MapNode) map[entities.NodeType]int {
	out := make(map[entities.NodeType]int)
	for _, n := range nodes {
		out[n.Type]++
	}
	return out
}

func TestService_BuildHiringWithoutModel(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	svc := NewService(Dependencies{Metrics: metrics})

	// Act
	result, err := svc.Build(context.Background(), hiringInput())

	// Assert
	require.NoError(t, err)
	m := result.Map

	t.Run("Should synthesize the expected shape", func(t *testing.T) {
		counts := countByType(m.Nodes)
		assert.Equal(t, 1, counts[entities.NodeTypeCurrent])
		assert.GreaterOrEqual(t, counts[entities.NodeTypeFuture], 10)
		assert.LessOrEqual(t, counts[entities.NodeTypeFuture], 18)
		assert.LessOrEqual(t, counts[entities.NodeTypeMerged], 2)
		assert.Equal(t, counts[entities.NodeTypeFuture]+counts[entities.NodeTypeMerged], m.Summary.TotalFutureStates)
	})

	t.Run("Should pick the option with the lowest loss as best", func(t *testing.T) {
		best, ok := m.OptionMetrics(m.Summary.BestForOptionsPreserved)
		require.True(t, ok)
		for _, id := range m.OptionIDs() {
			other, _ := m.OptionMetrics(id)
			assert.LessOrEqual(t, best.OptionLossPct, other.OptionLossPct, id)
		}
		assert.Equal(t, "A", m.Summary.BestForOptionsPreserved)
		assert.Equal(t, "B", m.Summary.WorstLockIn)
	})

	t.Run("Should complete every outcome detail from the fallback", func(t *testing.T) {
		for _, n := range m.Nodes {
			if !n.IsOutcome() {
				continue
			}
			assert.True(t, grounding.DetailComplete(n.Detail, nil), n.ID)
		}
	})

	t.Run("Should report no model use", func(t *testing.T) {
		assert.False(t, result.LLMUsed)
		assert.Nil(t, result.Extracted)
		assert.Empty(t, result.RecordID)
		assert.Equal(t, 1, metrics.built)
		assert.Equal(t, "hiring", metrics.domain)
		assert.Contains(t, metrics.fallback, "extract")
	})
}

func TestService_BuildRejectsInvalidInput(t *testing.T) {
	// Arrange
	extractor := new(MockExtractor)
	svc := NewService(Dependencies{Extractor: extractor})
	in := hiringInput()
	in.Title = "  "

	// Act
	_, err := svc.Build(context.Background(), in)

	// Assert
	require.Error(t, err)
	var verrs *pkgerrors.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestService_LLMUsed(t *testing.T) {
	tests := []struct {
		name      string
		fromModel bool
		report    rewrite.Report
		want      bool
	}{
		{"Should be true when both stages used the model", true, rewrite.Report{WeakNodes: 16, Batches: 2, Answered: 1}, true},
		{"Should be true when nothing needed a rewrite", true, rewrite.Report{}, true},
		{"Should be false when every batch fell back", true, rewrite.Report{WeakNodes: 16, Batches: 2, Fallback: 16}, false},
		{"Should be false when extraction fell back", false, rewrite.Report{WeakNodes: 16, Batches: 2, Answered: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			extractor := new(MockExtractor)
			extractor.On("Extract", mock.Anything, mock.Anything).Return(modelFacts(), tt.fromModel)
			enricher := &fakeEnricher{report: tt.report}
			svc := NewService(Dependencies{Extractor: extractor, Enricher: enricher})

			// Act
			result, err := svc.Build(context.Background(), hiringInput())

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.LLMUsed)
			assert.Equal(t, tt.fromModel, result.Extracted != nil)
			require.NotNil(t, enricher.seen.Extracted)
			assert.Equal(t, "Найм", enricher.seen.Extracted.Domain)
			extractor.AssertExpectations(t)
		})
	}
}

func TestService_BuildPublishesAndSaves(t *testing.T) {
	t.Run("Should save a record and publish both events", func(t *testing.T) {
		// Arrange
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.MapBuilt) bool {
			return e.RequestID == "req-1" && e.BestOption == "A" && e.WorstOption == "B" && e.OptionCount == 3
		})).Return(nil).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.RecordSaved) bool {
			return e.RecordID == "rec-1" && e.Domain == "hiring"
		})).Return(nil).Once()
		repo := &memoryHistory{}
		svc := NewService(Dependencies{History: repo, Publisher: publisher})
		svc.newID = func() string { return "rec-1" }
		ctx := common.WithRequestID(context.Background(), "req-1")

		// Act
		result, err := svc.Build(ctx, hiringInput())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "rec-1", result.RecordID)
		require.Len(t, repo.records, 1)
		assert.Equal(t, "Нанять первого сотрудника", repo.records[0].Title)
		assert.Len(t, repo.records[0].Summary.Options, 3)
		assert.True(t, svc.HistoryEnabled())
		publisher.AssertExpectations(t)
	})

	t.Run("Should still return the map when storage and events fail", func(t *testing.T) {
		// Arrange
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))
		repo := &memoryHistory{err: errors.New("disk full")}
		svc := NewService(Dependencies{History: repo, Publisher: publisher})

		// Act
		result, err := svc.Build(context.Background(), hiringInput())

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, result.Map)
		assert.Empty(t, result.RecordID)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})
}

func TestService_SideEffectsOutliveRequest(t *testing.T) {
	t.Run("Should save and publish after the request context is cancelled", func(t *testing.T) {
		// Arrange
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := common.GetRequestID(ctx)
			return ctx.Err() == nil && ok
		}), mock.Anything).Return(nil).Twice()
		repo := &memoryHistory{}
		svc := NewService(Dependencies{History: repo, Publisher: publisher})
		svc.newID = func() string { return "rec-late" }
		ctx, cancel := context.WithCancel(common.WithRequestID(context.Background(), "req-late"))
		cancel()

		// Act
		result, err := svc.Build(ctx, hiringInput())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "rec-late", result.RecordID)
		require.Len(t, repo.records, 1)
		assert.NoError(t, repo.ctxErr)
		assert.True(t, repo.bounded)
		publisher.AssertExpectations(t)
	})
}
