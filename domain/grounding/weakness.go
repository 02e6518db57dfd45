package grounding

import (
	"strings"

	"decisionmap/domain/config"
	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

var abstractWords = []string{
	"улучшение",
	"развитие",
	"оптимизация",
	"стабилизация",
	"усиление",
	"ускорение",
	"эффективность",
	"прогресс",
	"качество",
	"масштабирование",
}

// IsWeak reports whether the node text is too short, too abstract or
// lacks a measurable consequence.
func IsWeak(n entities.MapNode, cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	title := strings.TrimSpace(n.Title)
	detail := strings.TrimSpace(n.Detail)
	titleLen := textnorm.RuneLen(title)

	switch {
	case titleLen < cfg.WeakTitleLength:
		return true
	case textnorm.ContainsAny(textnorm.Lower(title), abstractWords...):
		return true
	case textnorm.RuneLen(detail) < cfg.MinDetailLength:
		return true
	case !HasMeasurabilityMarker(detail):
		return true
	case strings.TrimSpace(n.Summary) == "" && titleLen < cfg.ShortTitleLength:
		return true
	}
	return false
}

// NeedsRewrite selects weak outcome nodes. The current node holds the
// user's own text and is never rewritten.
func NeedsRewrite(n entities.MapNode, cfg *config.DomainConfig) bool {
	return n.Type != entities.NodeTypeCurrent && IsWeak(n, cfg)
}

// DetailComplete reports whether a final detail satisfies the length and
// marker invariant.
func DetailComplete(detail string, cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	detail = strings.TrimSpace(detail)
	return textnorm.RuneLen(detail) >= cfg.MinDetailLength && HasMeasurabilityMarker(detail)
}
