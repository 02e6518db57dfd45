package handlers

import (
	"context"
	"fmt"
	"time"

	"decisionmap/application/ports"
	"decisionmap/application/queries"
	"decisionmap/application/queries/bus"
	"decisionmap/domain/history"
)

// DefaultListLimit applies when a listing does not set one
const DefaultListLimit = 20

// HistoryQueryHandler answers every history query from one repository
type HistoryQueryHandler struct {
	repo ports.HistoryRepository
	now  func() time.Time
}

// NewHistoryQueryHandler creates a new history query handler
func NewHistoryQueryHandler(repo ports.HistoryRepository) *HistoryQueryHandler {
	return &HistoryQueryHandler{repo: repo, now: time.Now}
}

// Handle implements bus.QueryHandler
func (h *HistoryQueryHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	switch query := q.(type) {
	case queries.ListRecordsQuery:
		return h.list(ctx, query)
	case queries.GetRecordQuery:
		return h.repo.GetByID(ctx, query.RecordID)
	case queries.HiddenRuleReportQuery:
		return h.report(ctx)
	default:
		return nil, fmt.Errorf("unexpected query %T", q)
	}
}

func (h *HistoryQueryHandler) list(ctx context.Context, q queries.ListRecordsQuery) (history.Page, error) {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	page, err := h.repo.List(ctx, history.ListOptions{Domain: q.Domain, Limit: limit, Cursor: q.Cursor})
	if err != nil {
		return history.Page{}, fmt.Errorf("failed to list records: %w", err)
	}
	if page.Records == nil {
		page.Records = []history.DecisionRecord{}
	}
	return page, nil
}

func (h *HistoryQueryHandler) report(ctx context.Context) (history.HiddenRuleReport, error) {
	records, err := h.repo.All(ctx)
	if err != nil {
		return history.HiddenRuleReport{}, fmt.Errorf("failed to load history: %w", err)
	}
	return history.GenerateHiddenRuleReport(records, h.now()), nil
}

// RegisterHistoryQueries wires the history queries into b. The report is
// cached for reportTTL seconds when cache is set.
func RegisterHistoryQueries(b *bus.QueryBus, repo ports.HistoryRepository, cache bus.Cache, reportTTL int, metrics bus.Metrics) error {
	h := NewHistoryQueryHandler(repo)
	var common []bus.Middleware
	if metrics != nil {
		common = append(common, bus.MetricsMiddleware(metrics))
	}

	if err := b.Register(queries.ListRecordsQuery{}, h, common...); err != nil {
		return err
	}
	if err := b.Register(queries.GetRecordQuery{}, h, common...); err != nil {
		return err
	}
	report := common
	if cache != nil && reportTTL > 0 {
		report = append(append([]bus.Middleware(nil), common...), bus.CachingMiddleware(cache, reportTTL))
	}
	return b.Register(queries.HiddenRuleReportQuery{}, h, report...)
}
