// Package cacheadapter implements the tenant-scoped, namespaced cache
// adapter (component B): Redis-backed, circuit-breaker and retry
// wrapped, with optional gzip compression of large payloads.
package cacheadapter

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

// fallbackCacheSize bounds the in-process tier that takes over while
// Redis is degraded; entries are small (namespaced candidate/query
// keys), so a few thousand is cheap and covers a single pod's recent
// traffic.
const fallbackCacheSize = 4096

// Namespace enumerates the documented cache namespaces (spec §4.B).
type Namespace string

const (
	NamespaceEmbed    Namespace = "embed"
	NamespaceHybrid   Namespace = "hybrid"
	NamespaceRerank   Namespace = "rerank"
	NamespaceEvidence Namespace = "evidence"
	NamespaceMessages Namespace = "msgs"
)

// Health is the classification healthCheck() returns.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthDisabled Health = "disabled"
)

// Adapter is the Cache Adapter (component B). NewDisabled returns a
// non-nil *Adapter in disabled mode, whose every operation is a
// deliberate no-op so callers never need a nil check.
type Adapter struct {
	client     *redis.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.ExponentialBackoff
	compressor *Compressor
	fallback   *lru.Cache[string, []byte]
	logger     observability.Logger
	metrics    observability.MetricsClient
	disabled   bool
}

// Config configures the Redis connection and compression threshold.
type Config struct {
	Address                   string
	Password                  string
	DB                        int
	CompressionThresholdBytes int
}

// New builds an Adapter backed by a live Redis connection.
func New(cfg Config, logger observability.Logger, metrics observability.MetricsClient) *Adapter {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB})
	fallback, _ := lru.New[string, []byte](fallbackCacheSize)
	return &Adapter{
		client:     client,
		breaker:    resilience.NewCircuitBreaker("cache", resilience.Config{}, logger, metrics),
		retry:      resilience.NewExponentialBackoff(resilience.RetryConfig{MaxRetries: 3}),
		compressor: NewCompressor(cfg.CompressionThresholdBytes),
		fallback:   fallback,
		logger:     logger,
		metrics:    metrics,
	}
}

// NewDisabled builds an Adapter where every call is a deliberate miss;
// used when the cache dependency is intentionally turned off.
func NewDisabled(logger observability.Logger, metrics observability.MetricsClient) *Adapter {
	a := New(Config{}, logger, metrics)
	a.disabled = true
	return a
}

func key(ns Namespace, tenantID, k string) string {
	return fmt.Sprintf("%s:%s:%s", ns, tenantID, k)
}

// Get returns the value and true on a hit; any error (including a
// compression/deserialization failure) is treated as a miss and logged
// once, never propagated to the caller.
func (a *Adapter) Get(ctx context.Context, ns Namespace, tenantID, k string) ([]byte, bool) {
	if a.disabled {
		return nil, false
	}

	result, err := a.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		var raw []byte
		err := a.retry.Execute(ctx, func(ctx context.Context) error {
			b, err := a.client.Get(ctx, key(ns, tenantID, k)).Bytes()
			if err != nil {
				return err
			}
			raw = b
			return nil
		})
		return raw, err
	})

	start := time.Now()
	defer func() { a.metrics.RecordOperation("cache", "get", err == nil, time.Since(start).Seconds()) }()

	cacheKey := key(ns, tenantID, k)
	if err != nil {
		if err != redis.Nil {
			a.logger.Warn("cache get failed, falling back to in-process tier", map[string]interface{}{"namespace": ns, "error": err.Error()})
			if v, ok := a.fallback.Get(cacheKey); ok {
				return v, true
			}
		}
		return nil, false
	}

	raw, ok := result.([]byte)
	if !ok {
		return nil, false
	}

	decompressed, err := a.compressor.Decompress(raw)
	if err != nil {
		a.logger.Warn("cache payload decompression failed, treating as miss", map[string]interface{}{"namespace": ns})
		return nil, false
	}
	a.fallback.Add(cacheKey, decompressed)
	return decompressed, true
}

// Set is best-effort: failure is logged and metric-counted but never
// raised to the caller.
func (a *Adapter) Set(ctx context.Context, ns Namespace, tenantID, k string, value []byte, ttl time.Duration) {
	if a.disabled {
		return
	}

	cacheKey := key(ns, tenantID, k)
	a.fallback.Add(cacheKey, value)

	payload := a.compressor.Compress(value)
	_, err := a.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, a.retry.Execute(ctx, func(ctx context.Context) error {
			return a.client.Set(ctx, cacheKey, payload, ttl).Err()
		})
	})

	a.metrics.RecordOperation("cache", "set", err == nil, 0)
	if err != nil {
		a.logger.Warn("cache set failed, value retained in in-process tier only", map[string]interface{}{"namespace": ns, "error": err.Error()})
	}
}

// HealthCheck pings Redis through the breaker; disabled caches always
// report HealthDisabled so readiness logic can distinguish "off on
// purpose" from "down."
func (a *Adapter) HealthCheck(ctx context.Context) Health {
	if a.disabled {
		return HealthDisabled
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if _, err := a.breaker.Execute(pingCtx, func(ctx context.Context) (interface{}, error) {
		return a.client.Ping(ctx).Result()
	}); err != nil {
		return HealthDegraded
	}
	return HealthHealthy
}

// Close releases the underlying connection pool.
func (a *Adapter) Close() error {
	if a.disabled {
		return nil
	}
	return a.client.Close()
}
