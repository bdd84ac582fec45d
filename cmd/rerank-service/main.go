// Command rerank-service runs the LLM rerank HTTP API: POST /api/v1/rerank,
// backed by the Cache Adapter and the Anthropic-primary/OpenAI-secondary
// provider fallback chain (spec §4.F). It has no direct database
// dependency. Like search-service and embed-service it opens its
// listener first and builds the cache and providers in a background
// lazy-init step; that step does not probe whether Redis is reachable.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
	"github.com/delimatsuo/headhunter-sub008/internal/config"
	"github.com/delimatsuo/headhunter-sub008/internal/healthcheck"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
	"github.com/delimatsuo/headhunter-sub008/internal/rerankservice"
	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_DIR"), os.Getenv("ENVIRONMENT"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("rerank-service", cfg.Logging.Level)
	metricsClient := observability.NewMetricsClient("headhunter_rerank")

	tracerShutdown, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		Enabled: cfg.Tracing.Enabled, ServiceName: cfg.Tracing.ServiceName, Endpoint: cfg.Tracing.Endpoint,
	})
	if err != nil {
		logger.Warn("tracing initialization failed, continuing without it", map[string]interface{}{"error": err.Error()})
	}

	checker := healthcheck.NewChecker(logger)
	engine := gin.New()
	engine.Use(gin.Recovery(), tenantmiddleware.RequestLogger(logger))
	checker.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(metricsClient.Handler()))

	rlManager := resilience.NewRateLimiterManager(resilience.RateLimiterConfig{
		Limit: cfg.RateLimits.RerankRPS, Period: time.Second,
	})
	api := engine.Group("/api/v1")
	api.Use(
		tenantmiddleware.TenantFromHeaders(cfg.Tenant),
		tenantmiddleware.RateLimit(rlManager, "rerank"),
		tenantmiddleware.ErrorHandler(),
	)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}
	go func() {
		logger.Info("rerank-service listening", map[string]interface{}{"address": cfg.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("rerank-service: listener failed: %v", err)
		}
	}()

	go initAndServe(cfg, logger, metricsClient, checker, api)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("received shutdown signal", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := tracerShutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("rerank-service stopped", nil)
}

func initAndServe(cfg *config.Config, logger observability.Logger, metricsClient observability.MetricsClient, checker *healthcheck.Checker, api *gin.RouterGroup) {
	ctx := context.Background()

	var cache *cacheadapter.Adapter
	healthcheck.RunLazyInit(ctx, checker, resilience.RetryConfig{}, map[string]healthcheck.InitFunc{
		"cache": func(ctx context.Context) error {
			cache = cacheadapter.New(cacheadapter.Config{
				Address: cfg.Cache.Address, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
				CompressionThresholdBytes: cfg.Cache.CompressionThresholdBytes,
			}, logger, metricsClient)
			// cache is best-effort: rerank falls back to an uncached call
			// rather than failing, so startup never blocks on Redis health.
			return nil
		},
	})

	rerankSvc := buildRerankService(cfg, cache, logger, metricsClient)
	rerankservice.NewHandler(rerankSvc).Register(api)
	logger.Info("rerank-service dependencies initialized, routes registered", nil)
}

func buildRerankService(cfg *config.Config, cache *cacheadapter.Adapter, logger observability.Logger, metricsClient observability.MetricsClient) *rerankservice.Service {
	var primary, secondary rerankservice.Provider
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if p, err := rerankservice.NewAnthropicProvider(rerankservice.AnthropicConfig{APIKey: key}); err == nil {
			primary = p
		} else {
			logger.Warn("anthropic rerank provider unavailable", map[string]interface{}{"error": err.Error()})
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if p, err := rerankservice.NewOpenAIProvider(rerankservice.OpenAIConfig{APIKey: key}); err == nil {
			secondary = p
		} else {
			logger.Warn("openai rerank provider unavailable", map[string]interface{}{"error": err.Error()})
		}
	}
	if primary == nil && secondary == nil {
		logger.Warn("no rerank providers configured, rerank-service will always degrade to hybrid order", nil)
	}

	breaker := resilience.Config{
		FailureThreshold: cfg.Rerank.CircuitFailures,
		ResetTimeout:     time.Duration(cfg.Rerank.CircuitCooldownMillis) * time.Millisecond,
	}
	return rerankservice.NewService(primary, secondary, cache, rerankservice.Config{
		TTL:              cfg.Rerank.CacheTTL,
		ModelVersion:     "rerank-v1",
		WeightsVersion:   cfg.Search.WeightsVersion,
		PrimaryBreaker:   breaker,
		SecondaryBreaker: breaker,
	}, logger, metricsClient)
}
