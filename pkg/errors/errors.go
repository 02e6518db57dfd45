package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError and fixes its HTTP status
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeInternal   ErrorType = "INTERNAL"
	ErrorTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrorTypeDatabase   ErrorType = "DATABASE"

	// Model collaborators. The pipeline recovers from these locally, they
	// only reach a client through the MCP or CLI error text.
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeExternal    ErrorType = "EXTERNAL"
	ErrorTypeSchema      ErrorType = "SCHEMA"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeRateLimit:   http.StatusTooManyRequests,
	ErrorTypeDatabase:    http.StatusInternalServerError,
	ErrorTypeTimeout:     http.StatusGatewayTimeout,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
	ErrorTypeExternal:    http.StatusBadGateway,
	ErrorTypeSchema:      http.StatusBadGateway,
}

// AppError is a technical failure with a type, an optional stable code and
// the cause it wraps.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newAppError(t ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		Cause:      cause,
		HTTPStatus: statusByType[t],
		StackTrace: captureStackTrace(),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode sets a stable machine-readable code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds one entry to Details
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	var pcs [32]uintptr
	// skip runtime.Callers, captureStackTrace, newAppError and the constructor
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// NewValidationError reports malformed request input
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message, nil)
}

// NewInternalError reports a failure the caller cannot act on
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message, nil)
}

// NewRateLimitError reports a throttled client
func NewRateLimitError(limit int, window string) *AppError {
	return newAppError(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window), nil).
		WithCode("RATE_LIMITED")
}

// NewDatabaseError reports a failed storage operation
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase, fmt.Sprintf("database operation '%s' failed", operation), err)
}

// NewTimeoutError reports a model call that ran past its deadline
func NewTimeoutError(service string, err error) *AppError {
	return newAppError(ErrorTypeTimeout, fmt.Sprintf("call to '%s' timed out", service), err)
}

// NewUnavailableError reports a provider that is refusing calls, such as
// one behind an open circuit breaker.
func NewUnavailableError(service string, err error) *AppError {
	return newAppError(ErrorTypeUnavailable, fmt.Sprintf("service '%s' is unavailable", service), err)
}

// NewExternalError reports a transport or protocol failure of a provider
func NewExternalError(service string, err error) *AppError {
	return newAppError(ErrorTypeExternal, fmt.Sprintf("external service '%s' error", service), err)
}

// NewSchemaError reports a model answer that does not match the requested schema
func NewSchemaError(schema string, err error) *AppError {
	return newAppError(ErrorTypeSchema, fmt.Sprintf("response does not match schema '%s'", schema), err)
}

// GetAppError extracts the outermost AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error chain holds an AppError of errType
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound reports a missing resource
func IsNotFound(err error) bool {
	var derr *DomainError
	return errors.As(err, &derr) && derr.Type == DomainNotFoundError
}

// IsValidation reports any kind of input error: an AppError, a collected
// ValidationErrors or a validation DomainError.
func IsValidation(err error) bool {
	if IsType(err, ErrorTypeValidation) {
		return true
	}
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	var derr *DomainError
	return errors.As(err, &derr) && derr.Type == DomainValidationError
}

// Outcome names the failure class of a model call for metrics labels
func Outcome(err error) string {
	switch appErr := GetAppError(err); {
	case err == nil:
		return "ok"
	case appErr == nil:
		return "error"
	default:
		return strings.ToLower(string(appErr.Type))
	}
}
