package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"decisionmap/application/commands/bus"
	commandhandlers "decisionmap/application/commands/handlers"
	"decisionmap/application/extraction"
	"decisionmap/application/mapbuilder"
	"decisionmap/application/ports"
	querybus "decisionmap/application/queries/bus"
	queryhandlers "decisionmap/application/queries/handlers"
	"decisionmap/application/rewrite"
	"decisionmap/domain/catalog"
	domainconfig "decisionmap/domain/config"
	"decisionmap/domain/history"
	"decisionmap/domain/synthesis"
	"decisionmap/infrastructure/cache"
	"decisionmap/infrastructure/config"
	"decisionmap/infrastructure/llm"
	"decisionmap/infrastructure/messaging/eventbridge"
	"decisionmap/infrastructure/persistence/dynamodb"
	"decisionmap/infrastructure/persistence/sqlite"
	"decisionmap/interfaces/http/rest"
	"decisionmap/pkg/errors"
	"decisionmap/pkg/observability"
	"decisionmap/pkg/ratelimit"
	"decisionmap/pkg/share"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// ProvideErrorHandler creates the HTTP error handler. Stack traces are
// only exposed outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.Environment != "production")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideCatalog loads the embedded template catalog
func ProvideCatalog() (*catalog.Catalog, error) {
	return catalog.Default()
}

// ProvideDomainConfig resolves the domain rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideHistoryRepository opens the configured history backend. It returns
// a nil repository when history is off.
func ProvideHistoryRepository(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) (ports.HistoryRepository, func(), error) {
	switch cfg.HistoryBackend {
	case config.HistorySQLite:
		repo, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close history database", zap.Error(err))
			}
		}
		return repo, cleanup, nil
	case config.HistoryDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamodb.NewHistoryRepository(client, cfg.HistoryTable, logger), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// ProvideEventPublisher creates the EventBridge publisher, or a no-op one
// when events are disabled.
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return ports.NopPublisher{}
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("decisionmap")
}

// ProvideReporter creates the CloudWatch reporter. Only Lambda
// deployments report to CloudWatch; servers expose /metrics instead.
func ProvideReporter(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.Reporter {
	if !cfg.IsLambda || !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("%s/%s", cfg.CloudWatchNamespace, cfg.Environment)
	return observability.NewReporter(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideMetrics fans pipeline counters out to every enabled sink
func ProvideMetrics(cfg *config.Config, collector *observability.Collector, reporter *observability.Reporter) ports.Metrics {
	if !cfg.EnableMetrics {
		return ports.NopMetrics{}
	}
	sinks := observability.Multi{collector}
	if reporter != nil {
		sinks = append(sinks, reporter)
	}
	return sinks
}

// ProvideTracer creates the X-Ray tracer when tracing is enabled
func ProvideTracer(cfg *config.Config) ports.Tracer {
	if !cfg.EnableTracing {
		return ports.NopTracer{}
	}
	return observability.NewTracer("decisionmap")
}

// ProvideInMemoryCache creates the rewrite and report cache
func ProvideInMemoryCache(cfg *config.Config) (*cache.InMemoryCache, func()) {
	c := cache.NewInMemoryCache(cfg.CacheMaxEntries)
	return c, c.Close
}

// ProvideLLM creates the configured model provider
func ProvideLLM(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.StructuredLLM, error) {
	return llm.NewFromConfig(ctx, cfg, logger)
}

// ProvideEngine creates the grounded rewrite engine
func ProvideEngine(
	model ports.StructuredLLM,
	c *cache.InMemoryCache,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
	metrics ports.Metrics,
) *rewrite.Engine {
	settings := rewrite.Settings{
		Timeout:  cfg.LLMTimeout,
		CacheTTL: cfg.CacheTTL,
	}
	return rewrite.NewEngine(model, c, domainCfg, settings, logger, metrics)
}

// ProvideService assembles the map building pipeline
func ProvideService(
	cat *catalog.Catalog,
	domainCfg *domainconfig.DomainConfig,
	model ports.StructuredLLM,
	engine *rewrite.Engine,
	repo ports.HistoryRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	tracer ports.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) *mapbuilder.Service {
	return mapbuilder.NewService(mapbuilder.Dependencies{
		Config:      domainCfg,
		Synthesizer: synthesis.NewSynthesizer(cat, domainCfg),
		Extractor:   extraction.NewExtractor(model, cfg.LLMTimeout, logger, metrics),
		Enricher:    engine,
		History:     repo,
		Publisher:   publisher,
		Metrics:     metrics,
		Tracer:      tracer,
		Logger:      logger,
	})
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(repo ports.HistoryRepository, publisher ports.EventPublisher, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if repo == nil {
		return commandBus, nil
	}
	if err := commandhandlers.RegisterHistoryCommands(commandBus, repo, publisher, logger); err != nil {
		return nil, fmt.Errorf("failed to register history commands: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(repo ports.HistoryRepository, c *cache.InMemoryCache, metrics ports.Metrics, cfg *config.Config) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	if repo == nil {
		return queryBus, nil
	}
	if err := queryhandlers.RegisterHistoryQueries(queryBus, repo, c, cfg.ReportCacheTTL, metrics); err != nil {
		return nil, fmt.Errorf("failed to register history queries: %w", err)
	}
	return queryBus, nil
}

// ProvideShareCodec creates the share token codec
func ProvideShareCodec(cfg *config.Config) *share.Codec {
	return share.NewCodec(cfg.ShareSecret)
}

// ProvideRateLimiter creates the per-client limiter for map builds. A zero
// rate disables limiting.
func ProvideRateLimiter(cfg *config.Config) (*ratelimit.TokenBucketLimiter, func()) {
	if cfg.RateLimitPerMinute == 0 {
		return nil, func() {}
	}
	l := ratelimit.NewTokenBucketLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	return l, l.Stop
}

// ProvideWatcher starts hot reload of the overlay file and feeds new
// grounding thresholds to the engine.
func ProvideWatcher(cfg *config.Config, engine *rewrite.Engine, logger *zap.Logger) (*config.Watcher, func(), error) {
	if cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}
	w, err := config.NewWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	w.OnChange(engine.UpdateConfig)
	w.Start()
	return w, w.Stop, nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	service *mapbuilder.Service,
	cat *catalog.Catalog,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	codec *share.Codec,
	errs *errors.ErrorHandler,
	collector *observability.Collector,
	limiter *ratelimit.TokenBucketLimiter,
	repo ports.HistoryRepository,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		Builder:         service,
		Catalog:         cat,
		CommandBus:      commandBus,
		QueryBus:        queryBus,
		HistoryEnabled:  service.HistoryEnabled(),
		ShareCodec:      codec,
		Errors:          errs,
		Logger:          logger,
		RateLimitPerMin: cfg.RateLimitPerMinute,
		EnableCORS:      cfg.EnableCORS,
		Ready:           historyReady(repo),
		BuildTimeout:    buildTimeout(cfg),
	}
	if cfg.EnableMetrics {
		opts.Metrics = collector
		opts.MetricsHandler = collector.Handler()
	}
	if limiter != nil {
		opts.Limiter = limiter
	}
	return rest.NewRouter(opts)
}

// historyReady probes the history store with a one-record listing
func historyReady(repo ports.HistoryRepository) rest.ReadinessCheck {
	if repo == nil {
		return nil
	}
	return func(ctx context.Context) error {
		_, err := repo.List(ctx, history.ListOptions{Limit: 1})
		return err
	}
}

// buildTimeout leaves room for extraction plus the strict rewrite retry
func buildTimeout(cfg *config.Config) time.Duration {
	return 3*cfg.LLMTimeout + 5*time.Second
}
