package history

import (
	"time"

	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
)

// DecisionRecord is one built map kept for later analysis
type DecisionRecord struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"createdAt"`
	Title     string                  `json:"title"`
	Domain    string                  `json:"domain"`
	Input     entities.DecisionInput  `json:"input"`
	Map       *aggregates.DecisionMap `json:"map"`
	Summary   RecordSummary           `json:"summary"`
	Notes     string                  `json:"notes,omitempty"`
}

// NewDecisionRecord summarizes m and stamps the record
func NewDecisionRecord(id string, createdAt time.Time, in entities.DecisionInput, m *aggregates.DecisionMap) DecisionRecord {
	return DecisionRecord{
		ID:        id,
		CreatedAt: createdAt.UTC(),
		Title:     in.DisplayTitle(),
		Domain:    in.Domain.String(),
		Input:     in,
		Map:       m,
		Summary:   SummarizeMap(m),
	}
}

// ListOptions filters and pages record listings
type ListOptions struct {
	Domain string
	Limit  int
	Cursor string
}

// Page is one slice of a listing
type Page struct {
	Records    []DecisionRecord `json:"records"`
	NextCursor string           `json:"nextCursor,omitempty"`
	HasMore    bool             `json:"hasMore"`
}
