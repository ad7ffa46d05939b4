//go:build wireinject
// +build wireinject

// This file documents the intended google/wire provider graph. It is
// excluded from normal builds by the wireinject tag; container.go
// carries the hand-assembled equivalent of what `wire` would generate
// from this file, grounded on the teacher's infrastructure/di/wire.go.
package di

import (
	"gqlcache/pkg/config"

	"github.com/google/wire"
)

// SuperSet is the provider set wire would use to assemble a Container
// from a Config.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideStore,
	ProvideKeyer,
	ProvideMetrics,
	ProvideTracer,
	ProvideRateLimiter,
	ProvideHTTPClient,
	ProvideJWTValidator,
	ProvideExchangeFactories,
	ProvideClient,
	ProvideAdminRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container from cfg.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // wire replaces this body with generated code
}
