package entities

import "fmt"

// Confidence grades how much input backed the metrics
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ClosedCategory groups closed futures
type ClosedCategory string

const (
	CategoryOrg      ClosedCategory = "org"
	CategoryBudget   ClosedCategory = "budget"
	CategoryStrategy ClosedCategory = "strategy"
)

// EdgeMetrics are shared by every edge of one option
type EdgeMetrics struct {
	OptionLossPct        int        `json:"optionLossPct"`
	IrreversibilityScore int        `json:"irreversibilityScore"`
	F                    int        `json:"F"`
	T                    int        `json:"T"`
	O                    int        `json:"O"`
	S                    int        `json:"S"`
	Confidence           Confidence `json:"confidence"`
	PNRFlag              bool       `json:"pnrFlag"`
	PNRText              string     `json:"pnrText,omitempty"`
}

// PlaceholderMetrics are set by synthesis until scoring runs
func PlaceholderMetrics() EdgeMetrics {
	return EdgeMetrics{Confidence: ConfidenceMedium}
}

// ClosedFuture is a future state unreachable under an option
type ClosedFuture struct {
	Title          string         `json:"title"`
	Category       ClosedCategory `json:"category"`
	RelatedNodeIDs []string       `json:"relatedNodeIds"`
	RelatedTags    []string       `json:"relatedTags"`
}

// MapEdge connects two nodes under one option
type MapEdge struct {
	ID            string         `json:"id"`
	Source        string         `json:"source"`
	Target        string         `json:"target"`
	OptionID      string         `json:"optionId"`
	Metrics       EdgeMetrics    `json:"metrics"`
	ClosedFutures []ClosedFuture `json:"closedFutures"`
	Evidence      []string       `json:"evidence"`
}

// NewMapEdge builds an edge with placeholder metrics and the canonical id
func NewMapEdge(source, target, optionID string) MapEdge {
	idPrefix := source
	if source == CurrentNodeID {
		idPrefix = optionID
	}
	return MapEdge{
		ID:            fmt.Sprintf("edge-%s-%s", idPrefix, target),
		Source:        source,
		Target:        target,
		OptionID:      optionID,
		Metrics:       PlaceholderMetrics(),
		ClosedFutures: []ClosedFuture{},
		Evidence:      []string{},
	}
}
