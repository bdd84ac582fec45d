package embedproviders

import (
	"context"
	"errors"

	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

// FallbackChain wraps a primary provider and an optional secondary
// provider behind the single Provider interface: every call goes
// through the primary's own circuit breaker and retry policy first;
// only on primary failure does it attempt the secondary (spec §4.C).
// A misconfigured chain with no primary is a construction error, not a
// runtime one — callers build this once at startup.
type FallbackChain struct {
	primary          Provider
	primaryBreaker   *resilience.CircuitBreaker
	primaryRetry     *resilience.ExponentialBackoff
	secondary        Provider
	secondaryBreaker *resilience.CircuitBreaker
	logger           observability.Logger
	metrics          observability.MetricsClient
}

// NewFallbackChain builds a chain. secondary may be nil when no
// fallback is configured, in which case primary failures propagate.
func NewFallbackChain(primary, secondary Provider, logger observability.Logger, metrics observability.MetricsClient) (*FallbackChain, error) {
	if primary == nil {
		return nil, errors.New("embedproviders: fallback chain requires a primary provider")
	}
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &FallbackChain{
		primary:          primary,
		primaryBreaker:   resilience.NewCircuitBreaker("embed-primary", resilience.Config{}, logger, metrics),
		primaryRetry:     resilience.NewExponentialBackoff(resilience.RetryConfig{MaxRetries: 2}),
		secondary:        secondary,
		secondaryBreaker: resilience.NewCircuitBreaker("embed-secondary", resilience.Config{}, logger, metrics),
		logger:           logger,
		metrics:          metrics,
	}, nil
}

func (f *FallbackChain) Name() string         { return f.primary.Name() }
func (f *FallbackChain) Dimensions() int      { return f.primary.Dimensions() }
func (f *FallbackChain) ModelVersion() string { return f.primary.ModelVersion() }

func (f *FallbackChain) Embed(ctx context.Context, text string) (Result, error) {
	result, err := f.primaryBreaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		var r Result
		retryErr := f.primaryRetry.Execute(ctx, func(ctx context.Context) error {
			var embedErr error
			r, embedErr = f.primary.Embed(ctx, text)
			return embedErr
		})
		return r, retryErr
	})
	if err == nil {
		return result.(Result), nil
	}

	f.logger.Warn("primary embedding provider failed, attempting secondary", map[string]interface{}{"error": err.Error()})

	if f.secondary == nil {
		return Result{}, err
	}

	fallbackResult, fallbackErr := f.secondaryBreaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return f.secondary.Embed(ctx, text)
	})
	if fallbackErr != nil {
		return Result{}, fallbackErr
	}
	return fallbackResult.(Result), nil
}

func (f *FallbackChain) HealthCheck(ctx context.Context) error {
	if err := f.primary.HealthCheck(ctx); err == nil {
		return nil
	}
	if f.secondary != nil {
		return f.secondary.HealthCheck(ctx)
	}
	return errors.New("embedproviders: primary unhealthy and no secondary configured")
}
