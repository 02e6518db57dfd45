// Package extraction turns the free-form decision input into structured facts,
// preferring a model call and falling back to rules.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"decisionmap/application/ports"
	"decisionmap/application/strategy"
	"decisionmap/domain/core/entities"
	pkgerrors "decisionmap/pkg/errors"
)

// DefaultTimeout bounds every model call
const DefaultTimeout = 14 * time.Second

const stage = "extract"

var errEmptyDomain = errors.New("extracted domain is empty")

type attempt struct {
	decision entities.ExtractedDecision
	dirty    bool
}

// Extractor never fails: the rule-based step is always last
type Extractor struct {
	llm     ports.StructuredLLM
	timeout time.Duration
	logger  *zap.Logger
	metrics ports.Metrics
	chain   *strategy.Chain[entities.DecisionInput, entities.ExtractedDecision]
}

// NewExtractor creates an extractor. A nil llm leaves only the rules.
func NewExtractor(llm ports.StructuredLLM, timeout time.Duration, logger *zap.Logger, metrics ports.Metrics) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	e := &Extractor{llm: llm, timeout: timeout, logger: logger, metrics: metrics}

	e.chain = strategy.NewChain[entities.DecisionInput, entities.ExtractedDecision]("extraction", logger)
	if llm != nil {
		model := strategy.RetryOnce(e.firstCall, func(a attempt) bool { return !a.dirty }, e.purityRetry)
		e.chain.Then("model", func(ctx context.Context, in entities.DecisionInput) (entities.ExtractedDecision, error) {
			a, err := model(ctx, in)
			return a.decision, err
		})
	}
	e.chain.Then("rules", func(_ context.Context, in entities.DecisionInput) (entities.ExtractedDecision, error) {
		return RuleBased(in), nil
	})
	return e
}

// Extract returns the facts and whether the model produced them
func (e *Extractor) Extract(ctx context.Context, in entities.DecisionInput) (entities.ExtractedDecision, bool) {
	out, err := e.chain.Execute(ctx, in)
	if err != nil {
		// unreachable while the rules step is last
		return RuleBased(in), false
	}
	fromModel := e.llm != nil && out.Index == 0
	if !fromModel {
		e.metrics.Fallback(stage)
	}
	return out.Value, fromModel
}

func (e *Extractor) firstCall(ctx context.Context, in entities.DecisionInput) (attempt, error) {
	decision, err := e.call(ctx, SystemPrompt, in)
	if err != nil {
		return attempt{}, err
	}
	sanitized, dirty := Sanitize(decision)
	if dirty {
		e.logger.Warn("Extraction returned Latin text, retrying", zap.String("provider", e.llm.Name()))
	}
	return attempt{decision: sanitized, dirty: dirty}, nil
}

func (e *Extractor) purityRetry(ctx context.Context, in entities.DecisionInput, _ attempt) (attempt, error) {
	e.metrics.LLMCall(stage, "retry")
	decision, err := e.call(ctx, PuritySystemPrompt, in)
	if err != nil {
		e.logger.Warn("Purity retry failed, falling back to rules", zap.Error(err))
		return attempt{}, err
	}
	return attempt{decision: Purge(decision)}, nil
}

func (e *Extractor) call(ctx context.Context, system string, in entities.DecisionInput) (entities.ExtractedDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.llm.CallStructured(ctx, ports.StructuredRequest{
		Name:   SchemaName,
		System: system,
		User:   BuildPrompt(in),
		Schema: Schema(),
	})
	if err != nil {
		e.metrics.LLMCall(stage, pkgerrors.Outcome(err))
		return entities.ExtractedDecision{}, err
	}

	decision, err := Decode(raw)
	if err != nil {
		e.metrics.LLMCall(stage, "invalid")
		return entities.ExtractedDecision{}, err
	}
	e.metrics.LLMCall(stage, "ok")
	return decision, nil
}

// Decode parses a model answer into ExtractedDecision
func Decode(raw json.RawMessage) (entities.ExtractedDecision, error) {
	var decision entities.ExtractedDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return entities.ExtractedDecision{}, fmt.Errorf("decode extracted decision: %w", err)
	}
	if strings.TrimSpace(decision.Domain) == "" {
		return entities.ExtractedDecision{}, errEmptyDomain
	}
	decision.Normalize()
	return decision, nil
}
