package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"decisionmap/application/commands"
	"decisionmap/application/commands/bus"
	"decisionmap/domain/events"
	"decisionmap/domain/history"
	pkgerrors "decisionmap/pkg/errors"
)

// MockHistoryRepository is a mock implementation of ports.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Save(ctx context.Context, r history.DecisionRecord) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockHistoryRepository) GetByID(ctx context.Context, id string) (history.DecisionRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(history.DecisionRecord), args.Error(1)
}

func (m *MockHistoryRepository) List(ctx context.Context, opts history.ListOptions) (history.Page, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(history.Page), args.Error(1)
}

func (m *MockHistoryRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHistoryRepository) All(ctx context.Context) ([]history.DecisionRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]history.DecisionRecord), args.Error(1)
}

// MockPublisher is a mock implementation of ports.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

func newBus(t *testing.T, repo *MockHistoryRepository, publisher *MockPublisher) *bus.CommandBus {
	t.Helper()
	b := bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, RegisterHistoryCommands(b, repo, publisher, zap.NewNop()))
	return b
}

func TestDeleteRecordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Should delete an existing record and publish the event", func(t *testing.T) {
		// Arrange
		repo := new(MockHistoryRepository)
		publisher := new(MockPublisher)
		repo.On("GetByID", ctx, "rec-1").Return(history.DecisionRecord{ID: "rec-1"}, nil)
		repo.On("Delete", ctx, "rec-1").Return(nil)
		publisher.On("Publish", ctx, mock.MatchedBy(func(e events.RecordDeleted) bool {
			return e.RecordID == "rec-1" && e.GetEventType() == events.TypeRecordDeleted
		})).Return(nil)

		// Act
		err := newBus(t, repo, publisher).Send(ctx, commands.DeleteRecordCommand{RecordID: "rec-1"})

		// Assert
		require.NoError(t, err)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Should surface not found for unknown ids", func(t *testing.T) {
		repo := new(MockHistoryRepository)
		repo.On("GetByID", ctx, "missing").Return(history.DecisionRecord{}, pkgerrors.ErrRecordNotFound)

		err := newBus(t, repo, new(MockPublisher)).Send(ctx, commands.DeleteRecordCommand{RecordID: "missing"})

		assert.True(t, errors.Is(err, pkgerrors.ErrRecordNotFound))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Should ignore publish failures", func(t *testing.T) {
		repo := new(MockHistoryRepository)
		publisher := new(MockPublisher)
		repo.On("GetByID", ctx, "rec-2").Return(history.DecisionRecord{ID: "rec-2"}, nil)
		repo.On("Delete", ctx, "rec-2").Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(errors.New("bus down"))

		err := newBus(t, repo, publisher).Send(ctx, commands.DeleteRecordCommand{RecordID: "rec-2"})

		assert.NoError(t, err)
	})

	t.Run("Should reject a blank id before dispatch", func(t *testing.T) {
		repo := new(MockHistoryRepository)

		err := newBus(t, repo, new(MockPublisher)).Send(ctx, commands.DeleteRecordCommand{RecordID: " "})

		assert.True(t, errors.Is(err, bus.ErrValidationFailed))
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestAnnotateRecordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store trimmed notes", func(t *testing.T) {
		// Arrange
		repo := new(MockHistoryRepository)
		repo.On("GetByID", ctx, "rec-1").Return(history.DecisionRecord{ID: "rec-1", Title: "Найм"}, nil)
		repo.On("Save", ctx, mock.MatchedBy(func(r history.DecisionRecord) bool {
			return r.ID == "rec-1" && r.Notes == "Выбрали подрядчика" && r.Title == "Найм"
		})).Return(nil)

		// Act
		err := newBus(t, repo, new(MockPublisher)).Send(ctx, commands.AnnotateRecordCommand{RecordID: "rec-1", Notes: "  Выбрали подрядчика "})

		// Assert
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Should reject oversized notes", func(t *testing.T) {
		long := make([]rune, commands.MaxNotesLength+1)
		for i := range long {
			long[i] = 'я'
		}

		err := commands.AnnotateRecordCommand{RecordID: "rec-1", Notes: string(long)}.Validate()

		assert.Error(t, err)
	})
}

func TestCommandBus(t *testing.T) {
	t.Run("Should refuse duplicate registrations", func(t *testing.T) {
		b := bus.NewCommandBus()
		h := bus.CommandHandlerFunc(func(context.Context, bus.Command) error { return nil })

		require.NoError(t, b.Register(commands.DeleteRecordCommand{}, h))
		assert.Error(t, b.Register(commands.DeleteRecordCommand{}, h))
	})

	t.Run("Should report unregistered commands", func(t *testing.T) {
		err := bus.NewCommandBus().Send(context.Background(), commands.DeleteRecordCommand{RecordID: "x"})

		assert.True(t, errors.Is(err, bus.ErrHandlerNotFound))
	})

	t.Run("Should run middlewares in order", func(t *testing.T) {
		// Arrange
		var order []string
		mw := func(name string) bus.Middleware {
			return func(next bus.CommandHandler) bus.CommandHandler {
				return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
					order = append(order, name)
					return next.Handle(ctx, cmd)
				})
			}
		}
		b := bus.NewCommandBus(mw("first"), mw("second"))
		require.NoError(t, b.Register(commands.DeleteRecordCommand{}, bus.CommandHandlerFunc(func(context.Context, bus.Command) error {
			order = append(order, "handler")
			return nil
		})))

		// Act
		require.NoError(t, b.Send(context.Background(), commands.DeleteRecordCommand{RecordID: "x"}))

		// Assert
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})
}
