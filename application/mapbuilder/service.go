// Package mapbuilder assembles a decision map from user input: validation,
// fact extraction, synthesis, scoring, grounding and the rewrite pass.
package mapbuilder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"decisionmap/application/extraction"
	"decisionmap/application/ports"
	"decisionmap/application/rewrite"
	"decisionmap/domain/catalog"
	"decisionmap/domain/config"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/validators"
	"decisionmap/domain/events"
	"decisionmap/domain/grounding"
	"decisionmap/domain/history"
	"decisionmap/domain/scoring"
	"decisionmap/domain/synthesis"
	"decisionmap/pkg/common"
)

// sideEffectTimeout bounds the history save and event publish of a build.
// They run detached from the request so a client deadline does not drop them.
const sideEffectTimeout = 5 * time.Second

// Extractor turns input into structured facts. fromModel is false when the
// rule-based fallback produced them.
type Extractor interface {
	Extract(ctx context.Context, in entities.DecisionInput) (facts entities.ExtractedDecision, fromModel bool)
}

// Enricher rewrites weak nodes of a map
type Enricher interface {
	Enrich(ctx context.Context, m *aggregates.DecisionMap, rc rewrite.RewriteContext) (*aggregates.DecisionMap, rewrite.Report)
}

// BuildResult is the response of one build
type BuildResult struct {
	Map       *aggregates.DecisionMap     `json:"map"`
	Extracted *entities.ExtractedDecision `json:"extracted"`
	LLMUsed   bool                        `json:"llmUsed"`
	RecordID  string                      `json:"recordId,omitempty"`
	Report    rewrite.Report              `json:"-"`
}

// Dependencies are the collaborators of a Service. Nil ports become no-ops;
// a nil Extractor uses the rules and a nil Enricher runs without a model.
type Dependencies struct {
	Config      *config.DomainConfig
	Synthesizer *synthesis.Synthesizer
	Extractor   Extractor
	Enricher    Enricher
	History     ports.HistoryRepository
	Publisher   ports.EventPublisher
	Metrics     ports.Metrics
	Tracer      ports.Tracer
	Logger      *zap.Logger
}

// Service builds decision maps
type Service struct {
	validator *validators.DecisionValidator
	synth     *synthesis.Synthesizer
	scorer    *scoring.Scorer
	extractor Extractor
	enricher  Enricher
	history   ports.HistoryRepository
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    ports.Tracer
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	sideEffectTimeout time.Duration
}

// NewService wires a Service
func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	s := &Service{
		validator: validators.NewDecisionValidator(cfg),
		synth:     deps.Synthesizer,
		scorer:    scoring.NewScorer(cfg),
		extractor: deps.Extractor,
		enricher:  deps.Enricher,
		history:   deps.History,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		logger:    deps.Logger,
		now:       time.Now,
		newID:     uuid.NewString,

		sideEffectTimeout: sideEffectTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = ports.NopMetrics{}
	}
	if s.synth == nil {
		s.synth = synthesis.NewSynthesizer(catalog.MustDefault(), cfg)
	}
	if s.extractor == nil {
		s.extractor = extraction.NewExtractor(nil, 0, s.logger, s.metrics)
	}
	if s.enricher == nil {
		s.enricher = rewrite.NewEngine(nil, nil, cfg, rewrite.Settings{}, s.logger, s.metrics)
	}
	if s.publisher == nil {
		s.publisher = ports.NopPublisher{}
	}
	if s.tracer == nil {
		s.tracer = ports.NopTracer{}
	}
	return s
}

// HistoryEnabled reports whether builds are persisted
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// Build runs the whole pipeline. Validation is the only error path; model
// and storage failures degrade to fallbacks.
func (s *Service) Build(ctx context.Context, in entities.DecisionInput) (BuildResult, error) {
	start := s.now()
	if err := s.validator.Validate(in); err != nil {
		return BuildResult{}, err
	}

	var facts entities.ExtractedDecision
	var fromModel bool
	_ = s.tracer.TraceFunction(ctx, "extract", func(ctx context.Context) error {
		facts, fromModel = s.extractor.Extract(ctx, in)
		return nil
	})

	var m *aggregates.DecisionMap
	_ = s.tracer.TraceFunction(ctx, "synthesize", func(ctx context.Context) error {
		m = s.synth.Synthesize(in)
		s.scorer.Score(m, in, &facts)
		return nil
	})

	rc := rewrite.RewriteContext{
		Input:     in,
		Extracted: &facts,
		Pack:      grounding.BuildAnchorPack(in, &facts),
	}
	var report rewrite.Report
	_ = s.tracer.TraceFunction(ctx, "rewrite", func(ctx context.Context) error {
		m, report = s.enricher.Enrich(ctx, m, rc)
		return nil
	})
	scoring.Rank(m)

	result := BuildResult{
		Map:     m,
		LLMUsed: fromModel && report.ModelAnswered(),
		Report:  report,
	}
	if fromModel {
		extracted := facts
		result.Extracted = &extracted
	}

	s.logger.Info("Decision map built",
		zap.String("domain", in.Domain.String()),
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("future_states", m.Summary.TotalFutureStates),
		zap.Bool("llm_used", result.LLMUsed),
		zap.Int("fallback_nodes", report.Fallback),
	)

	requestID, _ := common.GetRequestID(ctx)
	if requestID == "" {
		requestID = s.newID()
	}
	built := events.NewMapBuilt(
		requestID,
		in.Domain.String(),
		in.DisplayTitle(),
		len(m.OptionIDs()),
		m.Summary.TotalFutureStates,
		m.Summary.BestForOptionsPreserved,
		m.Summary.WorstLockIn,
		result.LLMUsed,
		report.Fallback,
		s.now().UTC(),
	)
	sideCtx, cancel := s.detach(ctx)
	defer cancel()
	s.publish(sideCtx, built)

	if s.history != nil {
		result.RecordID = s.save(sideCtx, in, m)
	}

	s.metrics.MapBuilt(in.Domain.String(), result.LLMUsed, s.now().Sub(start))
	return result, nil
}

// detach keeps the request values of ctx but drops its cancellation
func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
}

func (s *Service) save(ctx context.Context, in entities.DecisionInput, m *aggregates.DecisionMap) string {
	record := history.NewDecisionRecord(s.newID(), s.now(), in, m)
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to save decision record", zap.String("record_id", record.ID), zap.Error(err))
		return ""
	}
	s.publish(ctx, events.NewRecordSaved(record.ID, record.Domain, record.CreatedAt))
	return record.ID
}

func (s *Service) publish(ctx context.Context, event events.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
