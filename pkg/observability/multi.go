package observability

import (
	"time"

	"decisionmap/application/ports"
)

// Multi fans every observation out to each sink
type Multi []ports.Metrics

func (m Multi) MapBuilt(domain string, llmUsed bool, elapsed time.Duration) {
	for _, s := range m {
		s.MapBuilt(domain, llmUsed, elapsed)
	}
}

func (m Multi) LLMCall(stage, outcome string) {
	for _, s := range m {
		s.LLMCall(stage, outcome)
	}
}

func (m Multi) Fallback(stage string) {
	for _, s := range m {
		s.Fallback(stage)
	}
}

func (m Multi) RewriteCache(hit bool) {
	for _, s := range m {
		s.RewriteCache(hit)
	}
}

func (m Multi) NodesRewritten(source string, n int) {
	for _, s := range m {
		s.NodesRewritten(source, n)
	}
}

func (m Multi) Query(name, outcome string, elapsed time.Duration) {
	for _, s := range m {
		s.Query(name, outcome, elapsed)
	}
}
