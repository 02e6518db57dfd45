// Package scoring computes per-option loss of optionality and the four
// irreversibility axes of a synthesized map.
package scoring

import (
	"decisionmap/domain/config"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
)

// OptionScore is the scoring outcome of one option
type OptionScore struct {
	OptionID      string
	Metrics       entities.EdgeMetrics
	ClosedFutures []entities.ClosedFuture
	Evidence      []string
}

// Scorer fills edge metrics. Pure and synchronous.
type Scorer struct {
	cfg *config.DomainConfig
}

// NewScorer creates a scorer
func NewScorer(cfg *config.DomainConfig) *Scorer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score computes metrics for every option of m and broadcasts them to the
// option's edges. extracted may be nil.
func (s *Scorer) Score(m *aggregates.DecisionMap, in entities.DecisionInput, extracted *entities.ExtractedDecision) []OptionScore {
	outcomes := m.OutcomeIDs()
	total := len(outcomes)
	m.Summary.TotalFutureStates = total

	confidence := s.Confidence(in)
	evidence := s.Evidence(in, extracted)
	floors := s.signalFloors(extracted)

	scores := make([]OptionScore, 0, len(in.Options))
	for _, opt := range in.UsableOptions() {
		reach := m.Reachable(opt.ID)
		loss := LossPct(countIn(reach, outcomes), total)

		var tags valueobjects.TagSet
		for _, n := range m.OptionNodes(opt.ID) {
			tags = append(tags, n.Tags...)
		}

		axes := s.axes(tags, floors)
		pnrFlag, pnrText := PointOfNoReturn(in, tags, extracted)

		metrics := entities.EdgeMetrics{
			OptionLossPct:        loss,
			IrreversibilityScore: axes.Composite(),
			F:                    axes.F,
			T:                    axes.T,
			O:                    axes.O,
			S:                    axes.S,
			Confidence:           confidence,
			PNRFlag:              pnrFlag,
			PNRText:              pnrText,
		}
		closed := ClosedFutures(m, reach)

		m.ApplyOptionMetrics(opt.ID, metrics, closed, evidence)
		scores = append(scores, OptionScore{
			OptionID:      opt.ID,
			Metrics:       metrics,
			ClosedFutures: closed,
			Evidence:      evidence,
		})
	}
	return scores
}

// LossPct is clamp(round((1 - reachable/total) * 100)); zero for an empty graph
func LossPct(reachable, total int) int {
	if total == 0 {
		return 0
	}
	return valueobjects.ClampPct(valueobjects.RoundHalfUp((1 - float64(reachable)/float64(total)) * 100))
}

// axes sums tag weights on top of the base, applies extraction floors and clamps.
// tags keeps duplicates across nodes: each occurrence counts.
func (s *Scorer) axes(tags valueobjects.TagSet, floors map[valueobjects.Axis]int) valueobjects.AxisWeights {
	w := valueobjects.AxisWeights{F: s.cfg.AxisBase, T: s.cfg.AxisBase, O: s.cfg.AxisBase, S: s.cfg.AxisBase}
	for _, t := range tags {
		w = w.Add(t.Weights())
	}
	for axis, floor := range floors {
		if w.Get(axis) < floor {
			w = w.Set(axis, floor)
		}
	}
	return w.Clamp()
}

func (s *Scorer) signalFloors(extracted *entities.ExtractedDecision) map[valueobjects.Axis]int {
	floors := make(map[valueobjects.Axis]int)
	if extracted == nil {
		return floors
	}
	sig := extracted.IrreversibilitySignals
	if len(sig.Financial) > 0 {
		floors[valueobjects.AxisFinancial] = s.cfg.SignalAxisFloor
	}
	if len(sig.Time) > 0 {
		floors[valueobjects.AxisTime] = s.cfg.SignalAxisFloor
	}
	if len(sig.Organizational) > 0 {
		floors[valueobjects.AxisOrganizational] = s.cfg.SignalAxisFloor
	}
	if len(sig.Strategic) > 0 {
		floors[valueobjects.AxisStrategic] = s.cfg.SignalAxisFloor
	}
	return floors
}

func countIn(set map[string]struct{}, ids []string) int {
	n := 0
	for _, id := range ids {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}
