package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"decisionmap/application/ports"
	"decisionmap/domain/catalog"
	"decisionmap/domain/config"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/domain/grounding"
	"decisionmap/domain/synthesis"
	"decisionmap/infrastructure/cache"
)

const groundedDetail = "Нанять в штат первого сотрудника значит закрепить бюджет 300 тысяч в месяц. " +
	"Откат займёт месяцы: команда из двух основателей теряет время на поиск замены."

var nodeLine = regexp.MustCompile(`(?m)^- id: (\S+) \|`)

// scriptedLLM answers every requested node with a candidate from reply
type scriptedLLM struct {
	mu     sync.Mutex
	calls  map[string]int
	reply  func(system, id string) (grounding.Candidate, bool)
	failOn map[string]bool
}

func newScriptedLLM(reply func(system, id string) (grounding.Candidate, bool)) *scriptedLLM {
	return &scriptedLLM{calls: map[string]int{}, reply: reply, failOn: map[string]bool{}}
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) CallStructured(_ context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls[req.System]++
	fail := s.failOn[req.System]
	s.mu.Unlock()
	if fail {
		return nil, errors.New("provider unavailable")
	}

	resp := BatchResponse{Nodes: []grounding.Candidate{}}
	for _, m := range nodeLine.FindAllStringSubmatch(req.User, -1) {
		if c, ok := s.reply(req.System, m[1]); ok {
			resp.Nodes = append(resp.Nodes, c)
		}
	}
	return json.Marshal(resp)
}

func (s *scriptedLLM) count(system string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[system]
}

func good(id string) grounding.Candidate {
	return grounding.Candidate{
		ID:               id,
		Title:            "Штат из первого сотрудника",
		Detail:           groundedDetail,
		Summary:          "Постоянная роль и бюджет",
		RelevanceScore:   0.9,
		Uncertainty:      grounding.UncertaintyLow,
		MeasurableMarker: "месяцы",
		Evidence:         []string{"нанять в штат", "бюджет"},
	}
}

func hiringContext(t *testing.T) (*aggregates.DecisionMap, RewriteContext) {
	t.Helper()
	in := entities.DecisionInput{
		Domain:           valueobjects.DomainHiring,
		Title:            "Нанять первого сотрудника",
		CurrentStateText: "Команда из двух основателей не успевает",
		Options: []entities.Option{
			{ID: "A", Label: "Нанять в штат"},
			{ID: "B", Label: "Подрядчик"},
			{ID: "C", Label: "Подождать"},
		},
		Constraints: []string{"Бюджет 300 тысяч в месяц"},
	}
	cat, err := catalog.Default()
	require.NoError(t, err)
	m := synthesis.NewSynthesizer(cat, nil).Synthesize(in)
	return m, RewriteContext{Input: in, Pack: grounding.BuildAnchorPack(in, nil)}
}

func outcomeCount(m *aggregates.DecisionMap) int {
	n := 0
	for _, node := range m.Nodes {
		if node.IsOutcome() {
			n++
		}
	}
	return n
}

func newEngine(llm ports.StructuredLLM, c ports.Cache) *Engine {
	return NewEngine(llm, c, config.DefaultDomainConfig(), Settings{}, zap.NewNop(), nil)
}

func TestEngine_AllCallsFail(t *testing.T) {
	// Arrange
	m, rc := hiringContext(t)
	llm := newScriptedLLM(func(string, string) (grounding.Candidate, bool) { return grounding.Candidate{}, false })
	llm.failOn[SystemPrompt] = true
	engine := newEngine(llm, nil)

	// Act
	out, report := engine.Enrich(context.Background(), m, rc)

	// Assert
	t.Run("Should complete every outcome detail with fallback text", func(t *testing.T) {
		for _, n := range out.Nodes {
			if !n.IsOutcome() {
				continue
			}
			assert.True(t, grounding.DetailComplete(n.Detail, nil), n.ID)
			require.NotNil(t, n.Meta, n.ID)
			assert.Equal(t, entities.SourceFallback, n.Meta.Source)
		}
	})

	t.Run("Should report a whole-batch fallback", func(t *testing.T) {
		assert.Equal(t, outcomeCount(m), report.WeakNodes)
		assert.Equal(t, report.WeakNodes, report.Fallback)
		assert.Equal(t, 2, report.Batches)
		assert.Zero(t, report.Answered)
		assert.False(t, report.ModelAnswered())
		assert.Zero(t, llm.count(StrictSystemPrompt))
	})

	t.Run("Should leave the input map untouched", func(t *testing.T) {
		fresh, _ := hiringContext(t)
		assert.Empty(t, cmp.Diff(fresh, m))
	})
}

func TestEngine_NoModel(t *testing.T) {
	m, rc := hiringContext(t)

	out, report := NewEngine(nil, nil, nil, Settings{}, nil, nil).Enrich(context.Background(), m, rc)

	assert.Equal(t, report.WeakNodes, report.Fallback)
	for _, n := range out.Nodes {
		if n.IsOutcome() {
			assert.True(t, grounding.DetailComplete(n.Detail, nil), n.ID)
		}
	}
}

func TestEngine_AcceptsGroundedAnswers(t *testing.T) {
	// Arrange
	m, rc := hiringContext(t)
	llm := newScriptedLLM(func(_ string, id string) (grounding.Candidate, bool) { return good(id), true })
	engine := newEngine(llm, cache.NewInMemoryCache(0))

	// Act
	first, report := engine.Enrich(context.Background(), m, rc)

	// Assert
	require.Equal(t, report.WeakNodes, report.Rewritten)
	assert.Zero(t, report.Fallback)
	assert.True(t, report.ModelAnswered())
	assert.Equal(t, 2, llm.count(SystemPrompt))

	node, ok := first.Node("A-future-1")
	require.True(t, ok)
	assert.Equal(t, "Штат из первого сотрудника", node.Title)
	assert.Equal(t, groundedDetail, node.Detail)
	assert.Equal(t, entities.SourceModel, node.Meta.Source)
	assert.NotEmpty(t, node.Meta.RawTitle)
	assert.Greater(t, node.Meta.OverlapRatio, 0.18)

	current, ok := first.Node(entities.CurrentNodeID)
	require.True(t, ok)
	assert.Nil(t, current.Meta)

	t.Run("Should serve an identical enrichment from the cache", func(t *testing.T) {
		second, report := engine.Enrich(context.Background(), m, rc)

		assert.Equal(t, 2, llm.count(SystemPrompt))
		assert.Equal(t, report.WeakNodes, report.Cached)
		node, _ := second.Node("A-future-1")
		assert.Equal(t, entities.SourceCache, node.Meta.Source)
		assert.Equal(t, first.Nodes[1].Detail, second.Nodes[1].Detail)
	})
}

func TestEngine_StrictRetry(t *testing.T) {
	// Arrange
	m, rc := hiringContext(t)
	llm := newScriptedLLM(func(system, id string) (grounding.Candidate, bool) {
		c := good(id)
		if system == SystemPrompt {
			c.RelevanceScore = 0.3
		}
		return c, true
	})
	engine := newEngine(llm, cache.NewInMemoryCache(0))

	// Act
	out, report := engine.Enrich(context.Background(), m, rc)

	// Assert
	assert.Equal(t, report.WeakNodes, report.Strict)
	assert.Equal(t, 2, llm.count(StrictSystemPrompt))
	node, _ := out.Node("C-future-1")
	assert.Equal(t, entities.SourceStrict, node.Meta.Source)

	t.Run("Should not cache strict answers", func(t *testing.T) {
		_, report := engine.Enrich(context.Background(), m, rc)

		assert.Equal(t, 2, llm.count(SystemPrompt))
		assert.Equal(t, 4, llm.count(StrictSystemPrompt))
		assert.Equal(t, report.WeakNodes, report.Strict)
	})
}

func TestEngine_GuardRejections(t *testing.T) {
	m, rc := hiringContext(t)
	llm := newScriptedLLM(func(system, id string) (grounding.Candidate, bool) {
		switch {
		case id == "A-future-1":
			// ungrounded text survives neither attempt
			c := good(id)
			c.Title = "Пакеты поддержки клиентов"
			c.Detail = "Пакеты поддержки для клиентов усиливают продажи и маркетинг на рынке, " +
				"сегменты растут быстрее, партнёры довольны, рекламные кампании окупаются за квартал."
			return c, true
		case id == "A-future-2" && system == SystemPrompt:
			// dropped by the model, answered in strict mode
			return grounding.Candidate{}, false
		case id == "A-future-3" && system == SystemPrompt:
			c := good("unknown-node")
			return c, true
		default:
			return good(id), true
		}
	})
	engine := newEngine(llm, nil)

	out, report := engine.Enrich(context.Background(), m, rc)

	t.Run("Should fall back when both attempts are vetoed", func(t *testing.T) {
		node, _ := out.Node("A-future-1")
		assert.Equal(t, entities.SourceFallback, node.Meta.Source)
		assert.Contains(t, node.Detail, "Фиксация: Нанять первого сотрудника.")
		assert.Equal(t, 1, report.Fallback)
	})

	t.Run("Should retry nodes the model skipped", func(t *testing.T) {
		node, _ := out.Node("A-future-2")
		assert.Equal(t, entities.SourceStrict, node.Meta.Source)
	})

	t.Run("Should ignore candidates for nodes that were not requested", func(t *testing.T) {
		_, ok := out.Node("unknown-node")
		assert.False(t, ok)
		node, _ := out.Node("A-future-3")
		assert.Equal(t, entities.SourceStrict, node.Meta.Source)
	})
}

func TestEngine_BatchSize(t *testing.T) {
	m, rc := hiringContext(t)
	llm := newScriptedLLM(func(_ string, id string) (grounding.Candidate, bool) { return good(id), true })
	cfg := config.DefaultDomainConfig()
	cfg.RewriteBatchSize = 4
	engine := NewEngine(llm, nil, cfg, Settings{}, nil, nil)

	_, report := engine.Enrich(context.Background(), m, rc)

	expected := (report.WeakNodes + 3) / 4
	assert.Equal(t, expected, report.Batches)
	assert.Equal(t, expected, llm.count(SystemPrompt))

	t.Run("Should pick up a new batch size after an update", func(t *testing.T) {
		updated := config.DefaultDomainConfig()
		engine.UpdateConfig(updated)

		_, report := engine.Enrich(context.Background(), m, rc)

		assert.Equal(t, 2, report.Batches)
	})
}

func TestCacheKey(t *testing.T) {
	m, rc := hiringContext(t)
	nodes := m.OptionNodes("A")

	key := CacheKey(nodes, rc)

	assert.Regexp(t, `^rewrite_v2::no-extracted::A-future-1\|`, key)
	assert.Contains(t, key, "::Нанять первого сотрудника::A=Нанять в штат|B=Подрядчик|C=Подождать::future")

	t.Run("Should change with the extracted entities", func(t *testing.T) {
		extracted := &entities.ExtractedDecision{Domain: "найм", Actors: []string{"основатели"}}
		rc.Extracted = extracted
		assert.NotEqual(t, key, CacheKey(nodes, rc))
		assert.Equal(t, ExtractedHash(extracted), ExtractedHash(&entities.ExtractedDecision{Domain: "найм", Actors: []string{"основатели"}}))
	})
}

func TestBuildPrompt(t *testing.T) {
	m, rc := hiringContext(t)
	nodes := m.OptionNodes("C")

	prompt := BuildPrompt(nodes, rc, true)

	assert.Contains(t, prompt, "Решение: Нанять первого сотрудника\n")
	assert.Contains(t, prompt, "- id: C-future-1 | тип: future | вариант: Подождать |")
	assert.Contains(t, prompt, "Запрещено вводить: пакеты, сегменты, поддержка, рынок, клиенты, продажи, маркетинг")
	assert.Contains(t, prompt, "Предыдущий ответ для этих узлов отклонён")
}

// gatedLLM holds every call until release is closed
type gatedLLM struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedLLM() *gatedLLM {
	return &gatedLLM{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedLLM) Name() string { return "gated" }

func (g *gatedLLM) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	g.calls.Add(1)
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	resp := BatchResponse{Nodes: []grounding.Candidate{}}
	for _, m := range nodeLine.FindAllStringSubmatch(req.User, -1) {
		resp.Nodes = append(resp.Nodes, good(m[1]))
	}
	return json.Marshal(resp)
}

func TestEngine_SharedBatchOutlivesCancelledCaller(t *testing.T) {
	// Arrange
	m, rc := hiringContext(t)
	var batch []entities.MapNode
	for _, n := range m.Nodes {
		if n.IsOutcome() {
			batch = append(batch, n)
			break
		}
	}
	require.Len(t, batch, 1)
	llm := newGatedLLM()
	e := newEngine(llm, nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := e.answer(leaderCtx, batch, rc)
		leaderErr <- err
	}()
	<-llm.entered

	type result struct {
		resp   BatchResponse
		source entities.RewriteSource
		err    error
	}
	follower := make(chan result, 1)
	go func() {
		resp, source, err := e.answer(context.Background(), batch, rc)
		follower <- result{resp, source, err}
	}()
	// let the second caller join the in-flight batch
	time.Sleep(50 * time.Millisecond)

	// Act
	cancelLeader()
	errLeader := <-leaderErr
	close(llm.release)
	got := <-follower

	// Assert
	assert.ErrorIs(t, errLeader, context.Canceled)
	require.NoError(t, got.err)
	assert.Equal(t, entities.SourceModel, got.source)
	require.Len(t, got.resp.Nodes, 1)
	assert.Equal(t, batch[0].ID, got.resp.Nodes[0].ID)
	assert.Equal(t, int32(1), llm.calls.Load())
}
