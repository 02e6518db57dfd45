package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"decisionmap/application/commands"
	"decisionmap/application/commands/bus"
	"decisionmap/application/ports"
	"decisionmap/domain/events"
)

// DeleteRecordHandler handles record deletion
type DeleteRecordHandler struct {
	repo      ports.HistoryRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeleteRecordHandler creates a new delete record handler
func NewDeleteRecordHandler(repo ports.HistoryRepository, publisher ports.EventPublisher, logger *zap.Logger) *DeleteRecordHandler {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	return &DeleteRecordHandler{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Handle implements bus.CommandHandler
func (h *DeleteRecordHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.DeleteRecordCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}

	// Existence check first so unknown ids surface as not found
	if _, err := h.repo.GetByID(ctx, cmd.RecordID); err != nil {
		return err
	}
	if err := h.repo.Delete(ctx, cmd.RecordID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if err := h.publisher.Publish(ctx, events.NewRecordDeleted(cmd.RecordID, h.now().UTC())); err != nil {
		h.logger.Warn("Failed to publish record deletion",
			zap.String("record_id", cmd.RecordID),
			zap.Error(err),
		)
	}
	return nil
}

// AnnotateRecordHandler updates record notes
type AnnotateRecordHandler struct {
	repo ports.HistoryRepository
}

// NewAnnotateRecordHandler creates a new annotate record handler
func NewAnnotateRecordHandler(repo ports.HistoryRepository) *AnnotateRecordHandler {
	return &AnnotateRecordHandler{repo: repo}
}

// Handle implements bus.CommandHandler
func (h *AnnotateRecordHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.AnnotateRecordCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", c)
	}

	record, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return err
	}
	record.Notes = strings.TrimSpace(cmd.Notes)
	if err := h.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// RegisterHistoryCommands wires the history handlers into b
func RegisterHistoryCommands(b *bus.CommandBus, repo ports.HistoryRepository, publisher ports.EventPublisher, logger *zap.Logger) error {
	if err := b.Register(commands.DeleteRecordCommand{}, NewDeleteRecordHandler(repo, publisher, logger)); err != nil {
		return err
	}
	return b.Register(commands.AnnotateRecordCommand{}, NewAnnotateRecordHandler(repo))
}
