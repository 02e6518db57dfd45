// Package rewrite replaces weak node text with grounded, measurable text.
// Model output is accepted only after the hard guard; everything else falls
// back to rule-based text built from the anchor pack.
package rewrite

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"decisionmap/application/ports"
	"decisionmap/domain/config"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/grounding"
	pkgerrors "decisionmap/pkg/errors"
)

// DefaultCacheTTL keeps batch answers for a day
const DefaultCacheTTL = 24 * 60 * 60

// RewriteContext is everything a batch prompt and the guard may refer to
type RewriteContext struct {
	Input     entities.DecisionInput
	Extracted *entities.ExtractedDecision
	Pack      grounding.AnchorPack
}

// Report summarizes one enrichment
type Report struct {
	WeakNodes int `json:"weakNodes"`
	Batches   int `json:"batches"`
	// Answered counts batches with a usable model answer, cached or fresh
	Answered  int `json:"answered"`
	Rewritten int `json:"rewritten"`
	Strict    int `json:"strict"`
	Cached    int `json:"cached"`
	Fallback  int `json:"fallback"`
}

// ModelAnswered reports whether the model contributed to the map
func (r Report) ModelAnswered() bool {
	return r.WeakNodes == 0 || r.Answered > 0
}

// Settings tune the engine outside of the domain config
type Settings struct {
	Timeout  time.Duration
	CacheTTL int
}

// Engine runs the batch cascade: cache, model, guard, strict retry, fallback
type Engine struct {
	llm      ports.StructuredLLM
	cache    ports.Cache
	cfg      atomic.Pointer[config.DomainConfig]
	settings Settings
	group    singleflight.Group
	logger   *zap.Logger
	metrics  ports.Metrics
}

// NewEngine creates an engine. llm and cache may be nil.
func NewEngine(llm ports.StructuredLLM, cache ports.Cache, cfg *config.DomainConfig, settings Settings, logger *zap.Logger, metrics ports.Metrics) *Engine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 14 * time.Second
	}
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	e := &Engine{llm: llm, cache: cache, settings: settings, logger: logger, metrics: metrics}
	e.cfg.Store(cfg)
	return e
}

// UpdateConfig swaps the thresholds used by subsequent enrichments
func (e *Engine) UpdateConfig(cfg *config.DomainConfig) {
	if cfg != nil {
		e.cfg.Store(cfg)
	}
}

// Config returns the active configuration
func (e *Engine) Config() *config.DomainConfig {
	return e.cfg.Load()
}

type resolution struct {
	candidate grounding.Candidate
	verdict   grounding.Verdict
	fallback  *grounding.Fallback
	source    entities.RewriteSource
}

var errNoModel = errors.New("no model configured")

// Enrich returns a copy of m with every weak outcome node rewritten. The
// input map is not modified.
func (e *Engine) Enrich(ctx context.Context, m *aggregates.DecisionMap, rc RewriteContext) (*aggregates.DecisionMap, Report) {
	cfg := e.cfg.Load()
	out := m.Clone()
	report := Report{}

	var weak []entities.MapNode
	for _, n := range out.Nodes {
		if grounding.NeedsRewrite(n, cfg) {
			weak = append(weak, n)
		}
	}
	report.WeakNodes = len(weak)
	if len(weak) == 0 {
		return out, report
	}

	guard := grounding.NewGuard(grounding.GuardConfigFrom(cfg), rc.Pack.AllowedSet())
	resolved := make(map[string]resolution, len(weak))

	for start := 0; start < len(weak); start += cfg.RewriteBatchSize {
		end := start + cfg.RewriteBatchSize
		if end > len(weak) {
			end = len(weak)
		}
		batch := weak[start:end]
		report.Batches++
		if e.runBatch(ctx, batch, rc, guard, cfg, resolved) {
			report.Answered++
		}
	}

	for _, n := range out.Nodes {
		r, ok := resolved[n.ID]
		if !ok {
			continue
		}
		out.ReplaceNode(apply(n, r))
		switch r.source {
		case entities.SourceFallback:
			report.Fallback++
		case entities.SourceStrict:
			report.Strict++
			report.Rewritten++
		case entities.SourceCache:
			report.Cached++
			report.Rewritten++
		default:
			report.Rewritten++
		}
	}

	e.metrics.NodesRewritten(string(entities.SourceModel), report.Rewritten-report.Strict-report.Cached)
	e.metrics.NodesRewritten(string(entities.SourceStrict), report.Strict)
	e.metrics.NodesRewritten(string(entities.SourceCache), report.Cached)
	e.metrics.NodesRewritten(string(entities.SourceFallback), report.Fallback)
	return out, report
}

// runBatch resolves every node of batch and reports whether a model answer
// was available for it.
func (e *Engine) runBatch(
	ctx context.Context,
	batch []entities.MapNode,
	rc RewriteContext,
	guard *grounding.Guard,
	cfg *config.DomainConfig,
	resolved map[string]resolution,
) bool {
	resp, source, err := e.answer(ctx, batch, rc)
	if err != nil {
		e.logger.Warn("Rewrite batch failed, using fallback",
			zap.Int("nodes", len(batch)),
			zap.Error(err),
		)
		e.metrics.Fallback("rewrite_batch")
		for _, n := range batch {
			resolved[n.ID] = fallbackResolution(n, rc, cfg)
		}
		return false
	}

	rejected := e.accept(batch, resp, guard, source, resolved)
	if len(rejected) == 0 {
		return true
	}

	e.logger.Debug("Retrying rejected nodes in strict mode", zap.Int("nodes", len(rejected)))
	strict, err := e.call(ctx, rejected, rc, true)
	if err != nil {
		e.logger.Warn("Strict retry failed, using fallback", zap.Int("nodes", len(rejected)), zap.Error(err))
		strict = BatchResponse{}
	}
	for _, n := range e.accept(rejected, strict, guard, entities.SourceStrict, resolved) {
		e.metrics.Fallback("rewrite_node")
		resolved[n.ID] = fallbackResolution(n, rc, cfg)
	}
	return true
}

// accept guards every candidate of resp against batch and returns the nodes
// left without an accepted candidate.
func (e *Engine) accept(
	batch []entities.MapNode,
	resp BatchResponse,
	guard *grounding.Guard,
	source entities.RewriteSource,
	resolved map[string]resolution,
) []entities.MapNode {
	requested := make(map[string]struct{}, len(batch))
	for _, n := range batch {
		requested[n.ID] = struct{}{}
	}

	for _, c := range resp.Nodes {
		_, known := requested[c.ID]
		verdict := guard.Evaluate(c, known)
		if !verdict.Accepted {
			e.logger.Debug("Guard rejected rewrite",
				zap.String("node_id", c.ID),
				zap.Any("vetoes", verdict.Vetoes),
			)
			continue
		}
		if _, done := resolved[c.ID]; done {
			continue
		}
		resolved[c.ID] = resolution{candidate: c, verdict: verdict, source: source}
	}

	var rejected []entities.MapNode
	for _, n := range batch {
		if _, ok := resolved[n.ID]; !ok {
			rejected = append(rejected, n)
		}
	}
	return rejected
}

// answer serves a batch from the cache or the model. Identical concurrent
// batches share a single call. The shared call ignores the cancellation of
// whichever request started it and is bounded by the engine timeout; each
// caller stops waiting when its own context ends.
func (e *Engine) answer(ctx context.Context, batch []entities.MapNode, rc RewriteContext) (BatchResponse, entities.RewriteSource, error) {
	if e.llm == nil {
		return BatchResponse{}, "", errNoModel
	}
	key := CacheKey(batch, rc)

	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, key); ok {
			if resp, ok := v.(BatchResponse); ok {
				e.metrics.RewriteCache(true)
				return resp, entities.SourceCache, nil
			}
		}
		e.metrics.RewriteCache(false)
	}

	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		resp, err := e.call(shared, batch, rc, false)
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			if err := e.cache.Set(shared, key, resp, e.settings.CacheTTL); err != nil {
				e.logger.Warn("Failed to cache rewrite batch", zap.Error(err))
			}
		}
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return BatchResponse{}, "", res.Err
		}
		return res.Val.(BatchResponse), entities.SourceModel, nil
	case <-ctx.Done():
		return BatchResponse{}, "", ctx.Err()
	}
}

func (e *Engine) call(ctx context.Context, batch []entities.MapNode, rc RewriteContext, strict bool) (BatchResponse, error) {
	if e.llm == nil {
		return BatchResponse{}, errNoModel
	}
	stage, system := "rewrite", SystemPrompt
	if strict {
		stage, system = "rewrite_strict", StrictSystemPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()

	raw, err := e.llm.CallStructured(ctx, ports.StructuredRequest{
		Name:   SchemaName,
		System: system,
		User:   BuildPrompt(batch, rc, strict),
		Schema: BatchSchema(),
	})
	if err != nil {
		e.metrics.LLMCall(stage, pkgerrors.Outcome(err))
		return BatchResponse{}, err
	}
	resp, err := DecodeBatch(raw)
	if err != nil {
		e.metrics.LLMCall(stage, "invalid")
		return BatchResponse{}, err
	}
	e.metrics.LLMCall(stage, "ok")
	return resp, nil
}

func fallbackResolution(n entities.MapNode, rc RewriteContext, cfg *config.DomainConfig) resolution {
	fb := grounding.FallbackDetail(n, rc.Pack, cfg)
	return resolution{fallback: &fb, source: entities.SourceFallback}
}

func apply(n entities.MapNode, r resolution) entities.MapNode {
	updated := n.Clone()
	meta := &entities.NodeMeta{
		RawTitle:  n.Title,
		RawDetail: originalDetail(n),
		Rewritten: true,
		Source:    r.source,
	}

	if r.fallback != nil {
		updated.Detail = r.fallback.Detail
		meta.MeasureType = string(r.fallback.MeasureType)
		meta.Evidence = r.fallback.Evidence
		updated.Meta = meta
		return updated
	}

	c := r.candidate
	updated.Title = trimmed(c.Title, n.Title)
	updated.Detail = trimmed(c.Detail, n.Detail)
	updated.Summary = trimmed(c.Summary, n.Summary)
	meta.OverlapRatio = r.verdict.OverlapRatio
	meta.MeasureType = string(r.verdict.MeasureType)
	meta.Evidence = append([]string(nil), c.Evidence...)
	updated.Meta = meta
	return updated
}

func trimmed(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
