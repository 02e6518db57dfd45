package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	commandbus "decisionmap/application/commands/bus"
	querybus "decisionmap/application/queries/bus"
	pkgerrors "decisionmap/pkg/errors"
)

// MaxBodyBytes bounds every JSON request body
const MaxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// decodeBody reads one JSON document into v
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return pkgerrors.NewValidationError("request body is too large")
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is empty")
		default:
			return pkgerrors.NewValidationError("invalid JSON body").WithCause(err)
		}
	}
	return nil
}

// busError turns bus validation failures into 400s
func busError(err error) error {
	if errors.Is(err, commandbus.ErrValidationFailed) || errors.Is(err, querybus.ErrValidationFailed) {
		return pkgerrors.NewValidationError(err.Error()).WithCause(err)
	}
	return err
}
