package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Fields    map[string][]string    `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler handles errors and sends appropriate HTTP responses
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	requestID := r.Header.Get("X-Request-ID")

	var (
		verrs *ValidationErrors
		derr  *DomainError
	)

	switch {
	case errors.As(err, &verrs):
		response := ErrorResponse{
			Error:     true,
			Type:      string(DomainValidationError),
			Message:   verrs.Error(),
			Code:      "VALIDATION_FAILED",
			Fields:    verrs.ToMap(),
			RequestID: requestID,
		}
		h.logger.Warn("Validation failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Any("fields", response.Fields),
		)
		h.sendJSON(w, http.StatusBadRequest, response)

	case errors.As(err, &derr):
		status := derr.StatusCode
		if status == 0 {
			status = h.defaultStatus
		}
		response := ErrorResponse{
			Error:     true,
			Type:      string(derr.Type),
			Message:   derr.Message,
			Code:      derr.Code,
			Details:   derr.Details,
			RequestID: requestID,
		}
		h.logDomainError(r, derr, status)
		h.sendJSON(w, status, response)

	default:
		if appErr := GetAppError(err); appErr != nil {
			status := appErr.HTTPStatus
			if status == 0 {
				status = h.defaultStatus
			}

			response := ErrorResponse{
				Error:     true,
				Type:      string(appErr.Type),
				Message:   appErr.Message,
				Code:      appErr.Code,
				Details:   appErr.Details,
				RequestID: requestID,
			}

			h.logError(r, appErr, status)

			if h.debug && appErr.StackTrace != "" {
				if response.Details == nil {
					response.Details = make(map[string]interface{})
				}
				response.Details["stack_trace"] = appErr.StackTrace
			}
			h.sendJSON(w, status, response)
			return
		}

		response := ErrorResponse{
			Error:     true,
			Type:      string(ErrorTypeInternal),
			Message:   "An internal error occurred",
			RequestID: requestID,
		}

		h.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Int("status", h.defaultStatus),
		)

		if h.debug {
			response.Message = err.Error()
		}
		h.sendJSON(w, h.defaultStatus, response)
	}
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	response := ErrorResponse{
		Error:     true,
		Type:      h.statusToErrorType(status),
		Message:   message,
		RequestID: r.Header.Get("X-Request-ID"),
	}

	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
	)

	h.sendJSON(w, status, response)
}

func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", r.Header.Get("X-Request-ID")),
	}

	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if err.Details != nil {
		fields = append(fields, zap.Any("details", err.Details))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) logDomainError(r *http.Request, err *DomainError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("error_code", err.Code),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if status >= 500 {
		h.logger.Error(err.Message, fields...)
		return
	}
	h.logger.Warn(err.Message, fields...)
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(err),
			zap.Any("data", data),
		)
	}
}

func (h *ErrorHandler) statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusNotFound:
		return string(DomainNotFoundError)
	case http.StatusGatewayTimeout:
		return string(ErrorTypeTimeout)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimit)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}

// Middleware returns an HTTP middleware that turns panics into error responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := NewInternalError(fmt.Sprintf("panic: %v", rec))
				h.Handle(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
