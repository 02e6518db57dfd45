// Package history keeps past decisions and mines them for repeating
// lock-in patterns.
package history

import (
	"sort"

	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
)

// TopTagLimit caps the per-option tag list
const TopTagLimit = 5

// OptionSummary condenses the metrics of one option
type OptionSummary struct {
	OptionID        string   `json:"optionId"`
	OptionLossPct   int      `json:"optionLossPct"`
	Irreversibility int      `json:"irreversibility"`
	PNR             bool     `json:"pnr"`
	TopTags         []string `json:"topTags"`
}

// RecordSummary lists option summaries in map order
type RecordSummary struct {
	Options []OptionSummary `json:"options"`
}

// SummarizeMap reads the first edge metrics of every option and counts
// the tags of its future nodes.
func SummarizeMap(m *aggregates.DecisionMap) RecordSummary {
	ids := m.OptionIDs()
	out := RecordSummary{Options: make([]OptionSummary, 0, len(ids))}
	for _, id := range ids {
		metrics, _ := m.OptionMetrics(id)
		out.Options = append(out.Options, OptionSummary{
			OptionID:        id,
			OptionLossPct:   metrics.OptionLossPct,
			Irreversibility: metrics.IrreversibilityScore,
			PNR:             metrics.PNRFlag,
			TopTags:         topTags(m.OptionNodes(id)),
		})
	}
	return out
}

func topTags(nodes []entities.MapNode) []string {
	counts := make(map[valueobjects.Tag]int)
	var order []valueobjects.Tag
	for _, n := range nodes {
		for _, t := range n.Tags {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > TopTagLimit {
		order = order[:TopTagLimit]
	}
	out := make([]string, len(order))
	for i, t := range order {
		out[i] = string(t)
	}
	return out
}

// Option returns the summary of one option
func (s RecordSummary) Option(id string) (OptionSummary, bool) {
	for _, o := range s.Options {
		if o.OptionID == id {
			return o, true
		}
	}
	return OptionSummary{}, false
}

// Worst is the option with the highest loss, first on ties
func (s RecordSummary) Worst() (OptionSummary, bool) {
	if len(s.Options) == 0 {
		return OptionSummary{}, false
	}
	worst := s.Options[0]
	for _, o := range s.Options[1:] {
		if o.OptionLossPct > worst.OptionLossPct {
			worst = o
		}
	}
	return worst, true
}

// AnyPNR reports whether some option crosses a point of no return
func (s RecordSummary) AnyPNR() bool {
	for _, o := range s.Options {
		if o.PNR {
			return true
		}
	}
	return false
}
