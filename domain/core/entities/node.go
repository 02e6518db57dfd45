package entities

import (
	"decisionmap/domain/core/valueobjects"
)

// NodeType distinguishes the three kinds of map nodes
type NodeType string

const (
	NodeTypeCurrent NodeType = "current"
	NodeTypeFuture  NodeType = "future"
	NodeTypeMerged  NodeType = "merged"
)

// CurrentNodeID is the fixed id of the root node
const CurrentNodeID = "current"

// Severity is the coarse weight of a future state
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RewriteSource records where the final node text came from
type RewriteSource string

const (
	SourceModel    RewriteSource = "model"
	SourceStrict   RewriteSource = "strict"
	SourceFallback RewriteSource = "fallback"
	SourceCache    RewriteSource = "cache"
)

// NodeMeta keeps rewrite provenance
type NodeMeta struct {
	RawTitle     string        `json:"rawTitle,omitempty"`
	RawDetail    string        `json:"rawDetail,omitempty"`
	Rewritten    bool          `json:"rewritten"`
	Source       RewriteSource `json:"source,omitempty"`
	OverlapRatio float64       `json:"overlapRatio,omitempty"`
	MeasureType  string        `json:"measureType,omitempty"`
	Evidence     []string      `json:"evidence,omitempty"`
}

// MapNode is one state on the decision map
type MapNode struct {
	ID              string              `json:"id"`
	Type            NodeType            `json:"type"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Detail          string              `json:"detail"`
	Summary         string              `json:"summary,omitempty"`
	Severity        Severity            `json:"severity,omitempty"`
	Irreversibility []valueobjects.Axis `json:"irreversibility,omitempty"`
	OptionID        string              `json:"optionId,omitempty"`
	Tags            valueobjects.TagSet `json:"tags"`
	Meta            *NodeMeta           `json:"meta,omitempty"`
}

// IsOutcome reports whether the node counts as a future state
func (n MapNode) IsOutcome() bool {
	return n.Type == NodeTypeFuture || n.Type == NodeTypeMerged
}

// Clone returns a deep copy
func (n MapNode) Clone() MapNode {
	c := n
	c.Tags = append(valueobjects.TagSet(nil), n.Tags...)
	c.Irreversibility = append([]valueobjects.Axis(nil), n.Irreversibility...)
	if n.Meta != nil {
		m := *n.Meta
		m.Evidence = append([]string(nil), n.Meta.Evidence...)
		c.Meta = &m
	}
	return c
}
