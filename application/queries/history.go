package queries

import (
	"errors"
	"strings"
)

// MaxListLimit caps one history page
const MaxListLimit = 100

// ListRecordsQuery pages through decision records, newest first
type ListRecordsQuery struct {
	Domain string
	Limit  int
	Cursor string
}

// Validate validates the query
func (q ListRecordsQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > MaxListLimit {
		return errors.New("limit is too large")
	}
	return nil
}

// GetRecordQuery fetches one record
type GetRecordQuery struct {
	RecordID string
}

// Validate validates the query
func (q GetRecordQuery) Validate() error {
	if strings.TrimSpace(q.RecordID) == "" {
		return errors.New("record ID is required")
	}
	return nil
}

// HiddenRuleReportQuery mines the whole history for repeating lock-in patterns
type HiddenRuleReportQuery struct{}

// Validate validates the query
func (HiddenRuleReportQuery) Validate() error { return nil }
