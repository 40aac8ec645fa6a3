//go:build wireinject
// +build wireinject

package di

import (
	"SignalDash/pkg/config"
	"SignalDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideIncidentLog,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideObjectStore,
		ProvideSharedCache,

		// Snapshot loaders
		ProvidePriceFeed,
		ProvideSignalFeed,
		ProvidePriceMemo,
		ProvideSignalMemo,

		// Use cases
		ProvideOverview,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
