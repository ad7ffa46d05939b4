package di

import (
	"context"
	"time"

	"gqlcache/application/client"
	"gqlcache/application/normalizedcache"
	"gqlcache/interfaces/admin"
	"gqlcache/pkg/config"
	"gqlcache/pkg/ratelimit"
	"gqlcache/pkg/telemetry"

	"go.uber.org/zap"
)

// Container holds all wired application dependencies, mirroring the
// teacher's infrastructure/di/wire.go Container shape.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Store       *normalizedcache.Store
	Keyer       *normalizedcache.Keyer
	Metrics     *telemetry.Metrics
	Tracer      *telemetry.Tracer
	RateLimiter *ratelimit.TokenBucketLimiter
	Client      *client.Client
	Admin       *admin.Router
}

// NewContainer hand-assembles the provider graph wire.go documents,
// since the wire binary is never invoked here. Equivalent in effect to
// the wire_gen.go a real `wire` run would produce.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	store := ProvideStore(logger)
	keyer := ProvideKeyer()

	metrics, err := ProvideMetrics(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tracer := ProvideTracer(cfg)
	limiter := ProvideRateLimiter(cfg)
	httpClient := ProvideHTTPClient()
	validator := ProvideJWTValidator(cfg)

	factories := ProvideExchangeFactories(store, keyer, httpClient, limiter, metrics, tracer, logger)
	c := ProvideClient(factories, logger)
	adminRouter := ProvideAdminRouter(store, validator, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Keyer:       keyer,
		Metrics:     metrics,
		Tracer:      tracer,
		RateLimiter: limiter,
		Client:      c,
		Admin:       adminRouter,
	}, nil
}

// RunGarbageCollector starts a background sweep on cfg.GCInterval,
// stopping when ctx is canceled (spec §4.5). Grounded on the teacher's
// infrastructure/di/cache.go cleanupExpired ticker-loop shape.
func (c *Container) RunGarbageCollector(ctx context.Context) {
	ticker := time.NewTicker(c.Config.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := c.Store.CollectGarbage()
			if dropped > 0 {
				c.Logger.Debug("background garbage collection", zap.Int("dropped", dropped))
			}
		}
	}
}

// Shutdown flushes any buffered telemetry and syncs the logger.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Metrics != nil {
		if err := c.Metrics.Flush(ctx); err != nil {
			return err
		}
	}
	_ = c.Logger.Sync()
	return nil
}
