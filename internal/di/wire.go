//go:build wireinject
// +build wireinject

package di

import (
	"FinTrack/pkg/config"
	"FinTrack/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedis,
		ProvidePostgres,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvidePriceCache,
		ProvideRecordStore,
		ProvideTokenStore,
		ProvidePriceArchive,
		ProvideGainsPublisher,

		// Market gains
		ProvideMarketAdapter,
		ProvideBasket,
		ProvideMarketGains,
		ProvideWarmer,

		// HTTP
		ProvideLimiter,
		ProvideGuard,
		ProvideHealthChecks,
		ProvideHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
