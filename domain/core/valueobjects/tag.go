package valueobjects

import "sort"

// Tag is a closed vocabulary label attached to future states
type Tag string

// Model vocabulary. Extraction and rewrite prompts may only speak in these.
const (
	TagFlexibilityHigh  Tag = "flexibility_high"
	TagFlexibilityLow   Tag = "flexibility_low"
	TagVendorLockin     Tag = "vendor_lockin"
	TagOpenStandards    Tag = "open_standards"
	TagFixedCost        Tag = "fixed_cost"
	TagVariableCost     Tag = "variable_cost"
	TagSunkCost         Tag = "sunk_cost"
	TagLowSunkCost      Tag = "low_sunk_cost"
	TagOrgInertia       Tag = "org_inertia"
	TagHiringLock       Tag = "hiring_lock"
	TagLongTimeline     Tag = "long_timeline"
	TagShortTimeline    Tag = "short_timeline"
	TagSpeedHigh        Tag = "speed_high"
	TagSpeedLow         Tag = "speed_low"
	TagScopeGrowth      Tag = "scope_growth"
	TagScopeLimit       Tag = "scope_limit"
	TagStrategicClosure Tag = "strategic_closure"
	TagStrategicOpening Tag = "strategic_opening"
	TagComplianceRisk   Tag = "compliance_risk"
	TagIntegrationRisk  Tag = "integration_risk"
)

// Template vocabulary
const (
	TagInfraContracts     Tag = "infra_contracts"
	TagSlowRevert         Tag = "slow_revert"
	TagProcessChange      Tag = "process_change"
	TagPlatformCommitment Tag = "platform_commitment"
	TagReversibilityLow   Tag = "reversibility_low"
	TagReversibilityHigh  Tag = "reversibility_high"
	TagScopeFocus         Tag = "scope_focus"
	TagMarketFocus        Tag = "market_focus"
)

// Structural tags
const (
	TagCurrentState Tag = "current_state"
	TagMerge        Tag = "merge"
)

// ModelVocabulary lists the tags a model may emit, in declaration order
var ModelVocabulary = []Tag{
	TagFlexibilityHigh, TagFlexibilityLow, TagVendorLockin, TagOpenStandards,
	TagFixedCost, TagVariableCost, TagSunkCost, TagLowSunkCost,
	TagOrgInertia, TagHiringLock, TagLongTimeline, TagShortTimeline,
	TagSpeedHigh, TagSpeedLow, TagScopeGrowth, TagScopeLimit,
	TagStrategicClosure, TagStrategicOpening, TagComplianceRisk, TagIntegrationRisk,
}

// String returns the raw tag
func (t Tag) String() string {
	return string(t)
}

// IsKnown reports whether t belongs to any of the closed vocabularies
// (model, template, structural or macro-group signature).
func (t Tag) IsKnown() bool {
	switch t {
	case TagInfraContracts, TagSlowRevert, TagProcessChange, TagPlatformCommitment,
		TagReversibilityLow, TagReversibilityHigh, TagScopeFocus, TagMarketFocus,
		TagCurrentState, TagMerge:
		return true
	}
	for _, v := range ModelVocabulary {
		if v == t {
			return true
		}
	}
	for _, g := range macroGroups {
		if Tag(g) == t {
			return true
		}
	}
	return false
}

// Weights returns the F/T/O/S contribution of the tag. Unweighted tags
// return the zero vector.
func (t Tag) Weights() AxisWeights {
	switch t {
	case TagFixedCost:
		return AxisWeights{F: 22, T: 6, O: 8, S: 10}
	case TagSunkCost:
		return AxisWeights{F: 18, T: 6, O: 6, S: 12}
	case TagInfraContracts:
		return AxisWeights{F: 24, T: 10, O: 8, S: 12}
	case TagLongTimeline:
		return AxisWeights{F: 6, T: 22, O: 8, S: 8}
	case TagSlowRevert:
		return AxisWeights{F: 8, T: 20, O: 10, S: 10}
	case TagOrgInertia:
		return AxisWeights{F: 6, T: 10, O: 22, S: 10}
	case TagHiringLock:
		return AxisWeights{F: 8, T: 10, O: 22, S: 8}
	case TagProcessChange:
		return AxisWeights{F: 6, T: 8, O: 18, S: 8}
	case TagVendorLockin:
		return AxisWeights{F: 8, T: 8, O: 10, S: 26}
	case TagStrategicClosure:
		return AxisWeights{F: 6, T: 6, O: 8, S: 28}
	case TagPlatformCommitment:
		return AxisWeights{F: 8, T: 8, O: 10, S: 22}
	case TagReversibilityLow:
		return AxisWeights{F: 6, T: 10, O: 10, S: 16}
	default:
		return AxisWeights{}
	}
}

// TagSet is an ordered, duplicate-free tag list
type TagSet []Tag

// NewTagSet builds a set preserving first occurrence order
func NewTagSet(tags ...Tag) TagSet {
	seen := make(map[Tag]struct{}, len(tags))
	out := make(TagSet, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Has reports membership
func (s TagSet) Has(t Tag) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// HasAny reports whether any of tags is present
func (s TagSet) HasAny(tags ...Tag) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Similarity is |A∩B| / max(|A|,|B|,1)
func (s TagSet) Similarity(other TagSet) float64 {
	a := NewTagSet(s...)
	b := NewTagSet(other...)
	inter := 0
	for _, t := range a {
		if b.Has(t) {
			inter++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(inter) / float64(denom)
}

// Strings returns the raw values
func (s TagSet) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = string(t)
	}
	return out
}

// Sorted returns a lexicographically sorted copy
func (s TagSet) Sorted() TagSet {
	out := append(TagSet(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Weights sums the weights of all member tags
func (s TagSet) Weights() AxisWeights {
	var w AxisWeights
	for _, t := range s {
		w = w.Add(t.Weights())
	}
	return w
}

// ParseTags converts raw strings, keeping unknown values as-is
func ParseTags(raw []string) TagSet {
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		tags = append(tags, Tag(r))
	}
	return NewTagSet(tags...)
}
