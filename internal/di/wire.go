//go:build wireinject
// +build wireinject

package di

import (
	"CurveDash/pkg/config"
	"CurveDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideCache,

		// Repositories
		ProvidePacketStore,
		ProvideSourceRegistry,
		ProvideFavoriteStore,
		ProvideTickStream,

		// External feed
		ProvideQuoteSource,
		ProvideNormalizer,

		// Use cases
		ProvideSyncService,
		ProvideLiveFeed,
		ProvidePrefetcher,

		// HTTP surface
		ProvideHub,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
