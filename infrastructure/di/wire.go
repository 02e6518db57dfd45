//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"decisionmap/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideErrorHandler,
	ProvideAWSConfig,
	ProvideCatalog,
	ProvideDomainConfig,
	ProvideHistoryRepository,
	ProvideEventPublisher,
	ProvideCollector,
	ProvideReporter,
	ProvideMetrics,
	ProvideTracer,
	ProvideInMemoryCache,
	ProvideLLM,
	ProvideEngine,
	ProvideService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideShareCodec,
	ProvideRateLimiter,
	ProvideWatcher,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup closes
// storage and stops background goroutines.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
