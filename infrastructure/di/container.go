package di

import (
	"go.uber.org/zap"

	"decisionmap/application/commands/bus"
	"decisionmap/application/mapbuilder"
	"decisionmap/application/ports"
	querybus "decisionmap/application/queries/bus"
	"decisionmap/application/rewrite"
	"decisionmap/domain/catalog"
	"decisionmap/infrastructure/cache"
	"decisionmap/infrastructure/config"
	"decisionmap/interfaces/http/rest"
	"decisionmap/pkg/errors"
	"decisionmap/pkg/observability"
	"decisionmap/pkg/ratelimit"
	"decisionmap/pkg/share"
)

// Container holds all application dependencies. History, Reporter, Limiter
// and Watcher are nil when their feature is off.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	ErrorHandler *errors.ErrorHandler
	Catalog      *catalog.Catalog
	History      ports.HistoryRepository
	Publisher    ports.EventPublisher
	Collector    *observability.Collector
	Reporter     *observability.Reporter
	Metrics      ports.Metrics
	Tracer       ports.Tracer
	Cache        *cache.InMemoryCache
	LLM          ports.StructuredLLM
	Engine       *rewrite.Engine
	Service      *mapbuilder.Service
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	ShareCodec   *share.Codec
	Limiter      *ratelimit.TokenBucketLimiter
	Watcher      *config.Watcher
	Router       *rest.Router
}
