// Package synthesis builds the deterministic skeleton of a decision map
// from the domain template catalog.
package synthesis

import (
	"fmt"

	"decisionmap/domain/catalog"
	"decisionmap/domain/config"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/pkg/utils"
)

// MergedDetail is the placeholder text of every convergence node
const MergedDetail = "Назад дороги почти не остаётся. Любой откат требует времени и денег."

// Synthesizer turns a decision input into the node/edge skeleton. It is
// pure: identical input always yields an identical map.
type Synthesizer struct {
	catalog *catalog.Catalog
	cfg     *config.DomainConfig
}

// NewSynthesizer creates a synthesizer over the catalog
func NewSynthesizer(cat *catalog.Catalog, cfg *config.DomainConfig) *Synthesizer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Synthesizer{catalog: cat, cfg: cfg}
}

// Synthesize builds current, future and merged nodes plus option edges.
// Edge metrics are placeholders until scoring runs.
func (s *Synthesizer) Synthesize(in entities.DecisionInput) *aggregates.DecisionMap {
	m := aggregates.NewDecisionMap()
	options := in.UsableOptions()
	templates := s.catalog.Templates(in.Domain)

	m.AddNode(entities.MapNode{
		ID:          entities.CurrentNodeID,
		Type:        entities.NodeTypeCurrent,
		Title:       in.DisplayTitle(),
		Description: in.CurrentStateText,
		Detail:      in.CurrentStateText,
		Tags:        valueobjects.TagSet{valueobjects.TagCurrentState},
	})

	perOption := s.cfg.PerOptionCap(len(options))
	futuresByOption := make([][]entities.MapNode, len(options))
	discovered := make([]valueobjects.MacroGroup, 0, 4)
	seenGroup := make(map[valueobjects.MacroGroup]struct{})

	for i, opt := range options {
		picked := s.pickWindow(opt.ID, templates)
		raw := make([]entities.MapNode, 0, len(picked))
		for idx, tpl := range picked {
			raw = append(raw, s.futureNode(opt.ID, idx, tpl))
		}
		nodes := Dedupe(raw, s.cfg.DedupeSimilarity)
		if len(nodes) > perOption {
			nodes = nodes[:perOption]
		}
		futuresByOption[i] = nodes

		for _, n := range nodes {
			g := valueobjects.MacroGroupOf(n.Tags)
			if _, ok := seenGroup[g]; ok {
				continue
			}
			seenGroup[g] = struct{}{}
			discovered = append(discovered, g)
		}
	}

	if len(discovered) > s.cfg.MergedNodeCap {
		discovered = discovered[:s.cfg.MergedNodeCap]
	}
	materialized := make(map[valueobjects.MacroGroup]string, len(discovered))
	merged := make([]entities.MapNode, 0, len(discovered))
	for _, g := range discovered {
		n := mergedNode(g, s.cfg.IrreversibleAxisW)
		materialized[g] = n.ID
		merged = append(merged, n)
	}

	for _, nodes := range futuresByOption {
		for _, n := range nodes {
			m.AddNode(n)
		}
	}
	for _, n := range merged {
		m.AddNode(n)
	}

	for i, opt := range options {
		for _, n := range futuresByOption[i] {
			m.AddEdge(entities.NewMapEdge(entities.CurrentNodeID, n.ID, opt.ID))
			target, ok := materialized[valueobjects.MacroGroupOf(n.Tags)]
			if !ok {
				if len(merged) == 0 {
					continue
				}
				target = merged[0].ID
			}
			m.AddEdge(entities.NewMapEdge(n.ID, target, opt.ID))
		}
	}

	return m
}

// pickWindow takes 5..7 consecutive templates starting at a position
// derived from the option id, wrapping around the sorted list.
func (s *Synthesizer) pickWindow(optionID string, templates []catalog.Template) []catalog.Template {
	if len(templates) == 0 {
		return nil
	}
	h := utils.StringHash(optionID)
	count := s.cfg.WindowBase + int(h%int64(s.cfg.WindowSpread))
	start := int(h % int64(len(templates)))
	out := make([]catalog.Template, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, templates[(start+i)%len(templates)])
	}
	return out
}

func (s *Synthesizer) futureNode(optionID string, idx int, tpl catalog.Template) entities.MapNode {
	tags := valueobjects.NewTagSet(tpl.Tags...)
	return entities.MapNode{
		ID:              fmt.Sprintf("%s-future-%d", optionID, idx+1),
		Type:            entities.NodeTypeFuture,
		Title:           tpl.Title,
		Description:     tpl.Subtitle,
		Detail:          tpl.Subtitle,
		OptionID:        optionID,
		Tags:            tags,
		Severity:        severityOf(tags),
		Irreversibility: tags.Weights().AxesAtLeast(s.cfg.IrreversibleAxisW),
	}
}

func mergedNode(g valueobjects.MacroGroup, axisThreshold int) entities.MapNode {
	return entities.MapNode{
		ID:              fmt.Sprintf("merged-%s", g),
		Type:            entities.NodeTypeMerged,
		Title:           g.Label(),
		Description:     MergedDetail,
		Detail:          MergedDetail,
		Tags:            valueobjects.TagSet{valueobjects.TagMerge, valueobjects.Tag(g)},
		Severity:        entities.SeverityHigh,
		Irreversibility: g.Tags().Weights().AxesAtLeast(axisThreshold),
	}
}

func severityOf(tags valueobjects.TagSet) entities.Severity {
	switch sum := tags.Weights().Sum(); {
	case sum >= 60:
		return entities.SeverityHigh
	case sum >= 30:
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}
