package rerankservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

// Config configures the Service.
type Config struct {
	TTL              time.Duration
	ModelVersion     string
	WeightsVersion   string
	PrimaryBreaker   resilience.Config
	SecondaryBreaker resilience.Config
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 15 * time.Minute
	}
	return c
}

// Service orchestrates cache lookup, primary/secondary provider
// fallback, and the degraded-order escape hatch (spec §4.F). It never
// returns an error to callers: total provider failure degrades to the
// input order with RerankApplied=false, matching the rest of this
// platform's "never fail the search because a collaborator is down"
// posture (see internal/mltrajectory).
type Service struct {
	primary          Provider
	secondary        Provider
	primaryBreaker   *resilience.CircuitBreaker
	secondaryBreaker *resilience.CircuitBreaker
	cache            *cacheadapter.Adapter
	cfg              Config
	logger           observability.Logger
	metrics          observability.MetricsClient
}

func NewService(primary, secondary Provider, cache *cacheadapter.Adapter, cfg Config, logger observability.Logger, metrics observability.MetricsClient) *Service {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	cfg = cfg.withDefaults()
	return &Service{
		primary:          primary,
		secondary:        secondary,
		primaryBreaker:   resilience.NewCircuitBreaker("rerank-primary", cfg.PrimaryBreaker, logger, metrics),
		secondaryBreaker: resilience.NewCircuitBreaker("rerank-secondary", cfg.SecondaryBreaker, logger, metrics),
		cache:            cache,
		cfg:              cfg,
		logger:           logger,
		metrics:          metrics,
	}
}

// Result is the outcome of a rerank call.
type Result struct {
	Scored        []ScoredCandidate
	RerankApplied bool
	CacheHit      bool
	Provider      string
}

// Rerank reorders req.Docset by LLM judgment, or degrades gracefully.
func (s *Service) Rerank(ctx context.Context, req Request) Result {
	jdHash := JDHash(req.JDText)
	cacheKey := CacheKey(req.TenantID, jdHash, req.Docset, s.cfg.ModelVersion, s.cfg.WeightsVersion)

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheadapter.NamespaceRerank, req.TenantID, cacheKey); ok {
			var cached []ScoredCandidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				return Result{Scored: cached, RerankApplied: true, CacheHit: true, Provider: "cache"}
			}
		}
	}

	start := time.Now()
	scored, providerName, err := s.callWithFallback(ctx, req)
	s.metrics.RecordOperation("rerank", "rerank", err == nil, time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("rerank degraded to input order", map[string]interface{}{
			"tenantId": req.TenantID,
			"error":    err.Error(),
		})
		return Result{Scored: degradedOrder(req.Docset), RerankApplied: false, Provider: "none"}
	}

	if s.cache != nil {
		if payload, err := json.Marshal(scored); err == nil {
			s.cache.Set(ctx, cacheadapter.NamespaceRerank, req.TenantID, cacheKey, payload, s.cfg.TTL)
		}
	}

	return Result{Scored: scored, RerankApplied: true, Provider: providerName}
}

func (s *Service) callWithFallback(ctx context.Context, req Request) ([]ScoredCandidate, string, error) {
	if s.primary != nil {
		scored, err := s.callThroughBreaker(ctx, s.primaryBreaker, s.primary, req)
		if err == nil {
			return scored, s.primary.Name(), nil
		}
		s.logger.Warn("primary rerank provider failed, attempting secondary", map[string]interface{}{
			"tenantId": req.TenantID,
			"error":    err.Error(),
		})
	}

	if s.secondary != nil {
		scored, err := s.callThroughBreaker(ctx, s.secondaryBreaker, s.secondary, req)
		if err == nil {
			return scored, s.secondary.Name(), nil
		}
		return nil, "", err
	}

	return nil, "", errNoProvidersAvailable
}

func (s *Service) callThroughBreaker(ctx context.Context, breaker *resilience.CircuitBreaker, provider Provider, req Request) ([]ScoredCandidate, error) {
	result, err := breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return provider.Rerank(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ScoredCandidate), nil
}

// degradedOrder returns candidates in their input order, each scored
// with its existing hybrid score, so a total rerank failure leaves the
// caller's ranking untouched.
func degradedOrder(docset []DocsetEntry) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(docset))
	for i, d := range docset {
		scored[i] = ScoredCandidate{CandidateID: d.CandidateID, Score: d.HybridScore, Reason: "rerank unavailable, input order kept"}
	}
	return scored
}
