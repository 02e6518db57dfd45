package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"decisionmap/domain/core/entities"
)

func buildSmallMap() *DecisionMap {
	m := NewDecisionMap()
	m.AddNode(entities.MapNode{ID: entities.CurrentNodeID, Type: entities.NodeTypeCurrent})
	m.AddNode(entities.MapNode{ID: "A-future-1", Type: entities.NodeTypeFuture, OptionID: "A"})
	m.AddNode(entities.MapNode{ID: "B-future-1", Type: entities.NodeTypeFuture, OptionID: "B"})
	m.AddNode(entities.MapNode{ID: "merged-platform_lock", Type: entities.NodeTypeMerged})
	m.AddEdge(entities.NewMapEdge(entities.CurrentNodeID, "A-future-1", "A"))
	m.AddEdge(entities.NewMapEdge("A-future-1", "merged-platform_lock", "A"))
	m.AddEdge(entities.NewMapEdge(entities.CurrentNodeID, "B-future-1", "B"))
	return m
}

func TestDecisionMap_Reachable(t *testing.T) {
	m := buildSmallMap()

	t.Run("Should follow only the option's edges", func(t *testing.T) {
		reach := m.Reachable("A")
		assert.Contains(t, reach, "A-future-1")
		assert.Contains(t, reach, "merged-platform_lock")
		assert.NotContains(t, reach, "B-future-1")
	})

	t.Run("Should exclude the root", func(t *testing.T) {
		assert.NotContains(t, m.Reachable("A"), entities.CurrentNodeID)
		assert.Empty(t, m.Reachable("Z"))
	})
}

func TestDecisionMap_ApplyOptionMetrics(t *testing.T) {
	m := buildSmallMap()

	m.ApplyOptionMetrics("A", entities.EdgeMetrics{OptionLossPct: 33, Confidence: entities.ConfidenceHigh}, nil, []string{"x"})

	for _, e := range m.Edges {
		if e.OptionID == "A" {
			assert.Equal(t, 33, e.Metrics.OptionLossPct)
			assert.Equal(t, []string{"x"}, e.Evidence)
		} else {
			assert.Equal(t, entities.ConfidenceMedium, e.Metrics.Confidence)
		}
	}
}

func TestDecisionMap_IDs(t *testing.T) {
	m := buildSmallMap()

	assert.Equal(t, []string{"A", "B"}, m.OptionIDs())
	assert.Equal(t, []string{"A-future-1", "B-future-1", "merged-platform_lock"}, m.OutcomeIDs())
	assert.Equal(t, "edge-A-A-future-1", m.Edges[0].ID)
	assert.Equal(t, "edge-A-future-1-merged-platform_lock", m.Edges[1].ID)
}

func TestDecisionMap_Clone(t *testing.T) {
	m := buildSmallMap()
	c := m.Clone()
	c.Nodes[1].Title = "changed"
	c.Edges[0].Evidence = append(c.Edges[0].Evidence, "y")

	assert.Empty(t, m.Nodes[1].Title)
	assert.Empty(t, m.Edges[0].Evidence)
}
