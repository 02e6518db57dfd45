package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"decisionmap/application/commands"
	commandbus "decisionmap/application/commands/bus"
	"decisionmap/application/queries"
	querybus "decisionmap/application/queries/bus"
	pkgerrors "decisionmap/pkg/errors"
)

// HistoryHandler serves decision records through the buses. With history
// disabled every route answers ErrHistoryDisabled.
type HistoryHandler struct {
	commandBus *commandbus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
	enabled    bool
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	enabled bool,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *HistoryHandler {
	return &HistoryHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
		enabled:    enabled,
	}
}

func (h *HistoryHandler) available(w http.ResponseWriter, r *http.Request) bool {
	if !h.enabled {
		h.errors.Handle(w, r, pkgerrors.ErrHistoryDisabled)
		return false
	}
	return true
}

// ListRecords handles GET /history?domain=&limit=&cursor=
func (h *HistoryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	q := queries.ListRecordsQuery{
		Domain: r.URL.Query().Get("domain"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("limit must be a number"))
			return
		}
		q.Limit = limit
	}

	page, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		h.errors.Handle(w, r, busError(err))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, page)
}

// GetRecord handles GET /history/{recordID}
func (h *HistoryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.queryBus.Ask(r.Context(), queries.GetRecordQuery{RecordID: recordID})
	if err != nil {
		h.errors.Handle(w, r, recordError(err, recordID))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /history/{recordID}
func (h *HistoryHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	err := h.commandBus.Send(r.Context(), commands.DeleteRecordCommand{RecordID: recordID})
	if err != nil {
		h.errors.Handle(w, r, recordError(err, recordID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnnotateRequest is the body of PUT /history/{recordID}/notes
type AnnotateRequest struct {
	Notes string `json:"notes"`
}

// AnnotateRecord handles PUT /history/{recordID}/notes
func (h *HistoryHandler) AnnotateRecord(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	var req AnnotateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	recordID := chi.URLParam(r, "recordID")
	err := h.commandBus.Send(r.Context(), commands.AnnotateRecordCommand{RecordID: recordID, Notes: req.Notes})
	if err != nil {
		h.errors.Handle(w, r, recordError(err, recordID))
		return
	}
	rec, err := h.queryBus.Ask(r.Context(), queries.GetRecordQuery{RecordID: recordID})
	if err != nil {
		h.errors.Handle(w, r, recordError(err, recordID))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, rec)
}

// HiddenRuleReport handles GET /history/report
func (h *HistoryHandler) HiddenRuleReport(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	report, err := h.queryBus.Ask(r.Context(), queries.HiddenRuleReportQuery{})
	if err != nil {
		h.errors.Handle(w, r, busError(err))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, report)
}

// recordError names the missing record in a 404
func recordError(err error, recordID string) error {
	if pkgerrors.IsNotFound(err) {
		return pkgerrors.RecordNotFound(recordID, err)
	}
	return busError(err)
}
