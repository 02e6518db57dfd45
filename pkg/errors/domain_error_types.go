package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Predefined decision-map errors. Each Add/AddError call copies the
// sentinel so details never leak between requests.
var (
	ErrDecisionTitleRequired = NewDomainError(
		DomainValidationError,
		"DECISION_TITLE_REQUIRED",
		"Decision title is required",
	)

	ErrTooFewOptions = NewDomainError(
		DomainValidationError,
		"TOO_FEW_OPTIONS",
		"At least two options with a label are required",
	)

	ErrTooManyOptions = NewDomainError(
		DomainValidationError,
		"TOO_MANY_OPTIONS",
		"At most four options are supported",
	)

	ErrDuplicateOptionID = NewDomainError(
		DomainValidationError,
		"DUPLICATE_OPTION_ID",
		"Option ids must be unique",
	)

	ErrUnknownDomain = NewDomainError(
		DomainValidationError,
		"UNKNOWN_DOMAIN",
		"Decision domain is not in the template catalog",
	)

	ErrRecordNotFound = NewDomainError(
		DomainNotFoundError,
		"RECORD_NOT_FOUND",
		"The requested decision record does not exist",
	)

	ErrInvalidShareToken = NewDomainError(
		DomainValidationError,
		"INVALID_SHARE_TOKEN",
		"Share token is malformed or its signature does not match",
	)

	ErrHistoryDisabled = NewDomainError(
		DomainBusinessRuleError,
		"HISTORY_DISABLED",
		"Decision history is not configured",
	)
)

// RecordNotFound is ErrRecordNotFound carrying the requested id. It still
// matches the sentinel under errors.Is.
func RecordNotFound(id string, cause error) *DomainError {
	return NewDomainError(ErrRecordNotFound.Type, ErrRecordNotFound.Code, ErrRecordNotFound.Message).
		WithDetail("record_id", id).
		WithCause(cause)
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// AddError adds a copy of a predefined domain error bound to field
func (v *ValidationErrors) AddError(field string, err *DomainError) {
	cp := NewDomainError(err.Type, err.Code, err.Message).WithDetail("field", field)
	v.Errors = append(v.Errors, cp)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Has reports whether an error with the given code was collected
func (v *ValidationErrors) Has(code string) bool {
	for _, err := range v.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ErrOrNil returns v as an error only when it holds entries
func (v *ValidationErrors) ErrOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}
