package aggregates

import (
	"decisionmap/domain/core/entities"
)

// MapSummary is the cross-option summary of a map. Best and worst hold option ids.
type MapSummary struct {
	TotalFutureStates       int    `json:"totalFutureStates"`
	BestForOptionsPreserved string `json:"bestForOptionsPreserved"`
	WorstLockIn             string `json:"worstLockIn"`
}

// DecisionMap is the aggregate root for one built map. Node and edge
// order is significant and preserved through every stage.
type DecisionMap struct {
	Nodes   []entities.MapNode `json:"nodes"`
	Edges   []entities.MapEdge `json:"edges"`
	Summary MapSummary         `json:"summary"`
}

// NewDecisionMap creates an empty map
func NewDecisionMap() *DecisionMap {
	return &DecisionMap{
		Nodes: []entities.MapNode{},
		Edges: []entities.MapEdge{},
	}
}

// AddNode appends a node
func (m *DecisionMap) AddNode(n entities.MapNode) {
	m.Nodes = append(m.Nodes, n)
}

// AddEdge appends an edge
func (m *DecisionMap) AddEdge(e entities.MapEdge) {
	m.Edges = append(m.Edges, e)
}

// Node returns the node with id
func (m *DecisionMap) Node(id string) (entities.MapNode, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return entities.MapNode{}, false
}

// ReplaceNode swaps in n by id; returns false when no node matched
func (m *DecisionMap) ReplaceNode(n entities.MapNode) bool {
	for i := range m.Nodes {
		if m.Nodes[i].ID == n.ID {
			m.Nodes[i] = n
			return true
		}
	}
	return false
}

// OptionIDs returns option ids in first-seen edge order
func (m *DecisionMap) OptionIDs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, e := range m.Edges {
		if _, ok := seen[e.OptionID]; ok {
			continue
		}
		seen[e.OptionID] = struct{}{}
		out = append(out, e.OptionID)
	}
	return out
}

// OutcomeIDs returns the distinct future and merged node ids
func (m *DecisionMap) OutcomeIDs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		if !n.IsOutcome() {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n.ID)
	}
	return out
}

// OptionNodes returns the future nodes generated for an option
func (m *DecisionMap) OptionNodes(optionID string) []entities.MapNode {
	out := make([]entities.MapNode, 0)
	for _, n := range m.Nodes {
		if n.Type == entities.NodeTypeFuture && n.OptionID == optionID {
			out = append(out, n)
		}
	}
	return out
}

// Reachable runs a BFS from the current node over the option's edges only.
// The root itself is not part of the result.
func (m *DecisionMap) Reachable(optionID string) map[string]struct{} {
	adj := make(map[string][]string)
	for _, e := range m.Edges {
		if e.OptionID != optionID {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	visited := make(map[string]struct{})
	queue := []string{entities.CurrentNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if _, ok := visited[next]; ok || next == entities.CurrentNodeID {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}

// ApplyOptionMetrics broadcasts one option's metrics to all its edges
func (m *DecisionMap) ApplyOptionMetrics(optionID string, metrics entities.EdgeMetrics, closed []entities.ClosedFuture, evidence []string) {
	for i := range m.Edges {
		if m.Edges[i].OptionID != optionID {
			continue
		}
		m.Edges[i].Metrics = metrics
		m.Edges[i].ClosedFutures = append([]entities.ClosedFuture{}, closed...)
		m.Edges[i].Evidence = append([]string{}, evidence...)
	}
}

// OptionMetrics returns the metrics of the first edge of the option
func (m *DecisionMap) OptionMetrics(optionID string) (entities.EdgeMetrics, bool) {
	for _, e := range m.Edges {
		if e.OptionID == optionID {
			return e.Metrics, true
		}
	}
	return entities.EdgeMetrics{}, false
}

// Clone returns a deep copy
func (m *DecisionMap) Clone() *DecisionMap {
	c := &DecisionMap{
		Nodes:   make([]entities.MapNode, len(m.Nodes)),
		Edges:   make([]entities.MapEdge, len(m.Edges)),
		Summary: m.Summary,
	}
	for i, n := range m.Nodes {
		c.Nodes[i] = n.Clone()
	}
	for i, e := range m.Edges {
		ce := e
		ce.ClosedFutures = append([]entities.ClosedFuture(nil), e.ClosedFutures...)
		ce.Evidence = append([]string(nil), e.Evidence...)
		c.Edges[i] = ce
	}
	return c
}
