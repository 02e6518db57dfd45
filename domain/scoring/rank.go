package scoring

import (
	"sort"

	"decisionmap/domain/core/aggregates"
)

// Rank fills the map summary. Options are stable-sorted by ascending loss,
// so ties keep input order; best is the first and worst the last.
func Rank(m *aggregates.DecisionMap) {
	m.Summary.TotalFutureStates = len(m.OutcomeIDs())

	ids := m.OptionIDs()
	if len(ids) == 0 {
		m.Summary.BestForOptionsPreserved = ""
		m.Summary.WorstLockIn = ""
		return
	}
	loss := make(map[string]int, len(ids))
	for _, id := range ids {
		metrics, _ := m.OptionMetrics(id)
		loss[id] = metrics.OptionLossPct
	}
	sort.SliceStable(ids, func(i, j int) bool { return loss[ids[i]] < loss[ids[j]] })

	m.Summary.BestForOptionsPreserved = ids[0]
	m.Summary.WorstLockIn = ids[len(ids)-1]
}
