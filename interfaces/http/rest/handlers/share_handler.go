package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	pkgerrors "decisionmap/pkg/errors"
	"decisionmap/pkg/share"
)

// ShareHandler issues and opens share tokens
type ShareHandler struct {
	codec  *share.Codec
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

// NewShareHandler creates a new share handler
func NewShareHandler(codec *share.Codec, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{codec: codec, errors: errs, logger: logger, now: time.Now}
}

// ShareRequest is the body of POST /share
type ShareRequest struct {
	Input    entities.DecisionInput  `json:"input"`
	Map      *aggregates.DecisionMap `json:"map"`
	OptionID string                  `json:"optionId,omitempty"`
}

// ShareResponse carries the issued token
type ShareResponse struct {
	Token  string `json:"token"`
	Signed bool   `json:"signed"`
}

// CreateToken handles POST /share
func (h *ShareHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.Map == nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("map is required"))
		return
	}

	payload, err := share.NewPayload(req.Input, req.Map, req.OptionID, h.now())
	if errors.Is(err, share.ErrUnknownOption) {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	token, err := h.codec.Encode(payload)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("failed to issue share token").WithCause(err))
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, ShareResponse{Token: token, Signed: h.codec.Signed()})
}

// OpenToken handles GET /share/{token}
func (h *ShareHandler) OpenToken(w http.ResponseWriter, r *http.Request) {
	payload, err := h.codec.Decode(chi.URLParam(r, "token"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, payload)
}
