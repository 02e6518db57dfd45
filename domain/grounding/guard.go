package grounding

import (
	"fmt"
	"strings"

	"decisionmap/domain/config"
	"decisionmap/pkg/textnorm"
)

// Uncertainty is the model's self-assessment of a rewrite
type Uncertainty string

const (
	UncertaintyLow    Uncertainty = "low"
	UncertaintyMedium Uncertainty = "medium"
	UncertaintyHigh   Uncertainty = "high"
)

// Candidate is one rewritten node as returned by the model
type Candidate struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Detail           string      `json:"detail"`
	Summary          string      `json:"summary"`
	RelevanceScore   float64     `json:"relevance_score"`
	Uncertainty      Uncertainty `json:"uncertainty"`
	MeasurableMarker string      `json:"measurable_marker"`
	Evidence         []string    `json:"evidence"`
}

// VetoType enumerates the hard rejection reasons
type VetoType string

const (
	VetoUnknownNode     VetoType = "unknown_node"
	VetoLowRelevance    VetoType = "low_relevance"
	VetoHighUncertainty VetoType = "high_uncertainty"
	VetoLowOverlap      VetoType = "low_overlap"
	VetoNoMarker        VetoType = "no_marker"
	VetoShortDetail     VetoType = "short_detail"
	VetoShortTitle      VetoType = "short_title"
)

// Veto is one failed check
type Veto struct {
	Type   VetoType
	Reason string
}

// Verdict is the outcome of guarding one candidate
type Verdict struct {
	Accepted     bool
	Vetoes       []Veto
	OverlapRatio float64
	MeasureType  MeasureType
}

// Has reports whether the verdict carries a veto of type t
func (v Verdict) Has(t VetoType) bool {
	for _, veto := range v.Vetoes {
		if veto.Type == t {
			return true
		}
	}
	return false
}

// GuardConfig holds the hard-guard thresholds
type GuardConfig struct {
	OverlapThreshold   float64
	RelevanceThreshold float64
	MinDetailRunes     int
	MinTitleRunes      int
}

// GuardConfigFrom takes the thresholds from a domain config
func GuardConfigFrom(cfg *config.DomainConfig) GuardConfig {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return GuardConfig{
		OverlapThreshold:   cfg.OverlapThreshold,
		RelevanceThreshold: cfg.RelevanceThreshold,
		MinDetailRunes:     cfg.MinDetailLength,
		MinTitleRunes:      cfg.MinTitleLength,
	}
}

// Guard checks model output against the input vocabulary, ignoring what
// the model says about itself except to veto on it.
type Guard struct {
	config  GuardConfig
	allowed AllowedSet
}

// NewGuard creates a guard over the allowed vocabulary
func NewGuard(cfg GuardConfig, allowed AllowedSet) *Guard {
	return &Guard{config: cfg, allowed: allowed}
}

// Evaluate runs every check and collects all vetoes. known reports whether
// the candidate id belongs to the batch that was sent.
func (g *Guard) Evaluate(c Candidate, known bool) Verdict {
	var vetoes []Veto
	title := strings.TrimSpace(c.Title)
	detail := strings.TrimSpace(c.Detail)

	if !known {
		vetoes = append(vetoes, Veto{VetoUnknownNode, fmt.Sprintf("node %q was not requested", c.ID)})
	}
	if c.RelevanceScore < g.config.RelevanceThreshold {
		vetoes = append(vetoes, Veto{
			VetoLowRelevance,
			fmt.Sprintf("relevance %.2f below %.2f", c.RelevanceScore, g.config.RelevanceThreshold),
		})
	}
	if c.Uncertainty == UncertaintyHigh {
		vetoes = append(vetoes, Veto{VetoHighUncertainty, "model reported high uncertainty"})
	}

	overlap := OverlapRatio(title+" "+detail, g.allowed)
	if overlap < g.config.OverlapThreshold {
		vetoes = append(vetoes, Veto{
			VetoLowOverlap,
			fmt.Sprintf("overlap %.2f below %.2f", overlap, g.config.OverlapThreshold),
		})
	}

	measure, hasMarker := MeasurabilityMarker(detail)
	if !hasMarker {
		vetoes = append(vetoes, Veto{VetoNoMarker, "detail has no measurability marker"})
	}
	if n := textnorm.RuneLen(detail); n < g.config.MinDetailRunes {
		vetoes = append(vetoes, Veto{VetoShortDetail, fmt.Sprintf("detail %d runes, need %d", n, g.config.MinDetailRunes)})
	}
	if n := textnorm.RuneLen(title); n < g.config.MinTitleRunes {
		vetoes = append(vetoes, Veto{VetoShortTitle, fmt.Sprintf("title %d runes, need %d", n, g.config.MinTitleRunes)})
	}

	return Verdict{
		Accepted:     len(vetoes) == 0,
		Vetoes:       vetoes,
		OverlapRatio: overlap,
		MeasureType:  measure,
	}
}
