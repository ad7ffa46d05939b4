// Package di hand-assembles the dependency graph wire.go documents,
// since the wire binary cannot be invoked in this environment. Grounded
// on the teacher's infrastructure/di/providers.go provider-function
// shape, generalized from the CQRS bus/repository graph to the
// exchange-chain/store graph this module builds.
package di

import (
	"context"
	"net/http"
	"time"

	"gqlcache/application/client"
	"gqlcache/application/dedup"
	"gqlcache/application/documentcache"
	"gqlcache/application/exchange"
	"gqlcache/application/normalizedcache"
	"gqlcache/application/transport"
	"gqlcache/interfaces/admin"
	"gqlcache/pkg/auth"
	"gqlcache/pkg/config"
	"gqlcache/pkg/ratelimit"
	"gqlcache/pkg/telemetry"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.uber.org/zap"
)

// ProvideLogger builds the process logger, production or development
// depending on cfg.Environment.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideStore constructs the normalized Entity Store.
func ProvideStore(logger *zap.Logger) *normalizedcache.Store {
	return normalizedcache.NewStore(logger)
}

// ProvideKeyer constructs the entity keyer. No custom per-type key
// selectors are configured by default; callers extend this map for
// their own schemas.
func ProvideKeyer() *normalizedcache.Keyer {
	return normalizedcache.NewKeyer(map[string]string{})
}

// ProvideMetrics wires a CloudWatch-backed metrics sink when enabled,
// or a nil sink otherwise (Metrics.Incr/Flush are nil-receiver-safe).
func ProvideMetrics(ctx context.Context, cfg *config.Config) (*telemetry.Metrics, error) {
	if !cfg.EnableMetrics {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return telemetry.NewMetrics(awscloudwatch.NewFromConfig(awsCfg), "gqlcache"), nil
}

// ProvideTracer wires an X-Ray tracer when enabled.
func ProvideTracer(cfg *config.Config) *telemetry.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return telemetry.NewTracer("gqlcache")
}

// ProvideRateLimiter constructs the transport-stage token bucket.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.TokenBucketLimiter {
	return ratelimit.NewTokenBucketLimiter(cfg.TransportMaxTokens, cfg.TransportRefillRate)
}

// ProvideHTTPClient builds the outbound HTTP client the transport stage
// uses to reach the GraphQL server.
func ProvideHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// ProvideJWTValidator wires the admin surface's bearer-token validator.
// Returns nil when no secret is configured (local/dev use).
func ProvideJWTValidator(cfg *config.Config) *auth.JWTValidator {
	if cfg.JWTSecret == "" {
		return nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
}

// ProvideExchangeFactories assembles the default pipeline order (spec
// §13 supplement: Dedup -> DocumentCache -> NormalizedCache ->
// Transport), each stage wrapped in an X-Ray subsegment when tracer is
// non-nil (cfg.EnableTracing).
func ProvideExchangeFactories(
	store *normalizedcache.Store,
	keyer *normalizedcache.Keyer,
	httpClient *http.Client,
	limiter *ratelimit.TokenBucketLimiter,
	metrics *telemetry.Metrics,
	tracer *telemetry.Tracer,
	logger *zap.Logger,
) []exchange.Factory {
	return []exchange.Factory{
		telemetry.TraceFactory(tracer, "dedup", dedup.NewFactory(logger)),
		telemetry.TraceFactory(tracer, "documentcache", documentcache.NewFactory(logger)),
		telemetry.TraceFactory(tracer, "normalizedcache", normalizedcache.NewFactory(store, keyer, logger, metrics)),
		telemetry.TraceFactory(tracer, "transport", transport.NewFactory(httpClient, limiter, logger)),
	}
}

// ProvideClient builds the pipeline runtime.
func ProvideClient(factories []exchange.Factory, logger *zap.Logger) *client.Client {
	return client.New(factories, logger)
}

// ProvideAdminRouter wires the cache-introspection HTTP surface.
func ProvideAdminRouter(store *normalizedcache.Store, validator *auth.JWTValidator, logger *zap.Logger) *admin.Router {
	return admin.NewRouter(store, validator, logger)
}
