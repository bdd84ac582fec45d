// Command search-service runs the hybrid search HTTP API: POST
// /api/v1/search/hybrid, backed by the Vector Store Adapter, Cache
// Adapter, Embed Service, deterministic scorer, ML Trajectory Client,
// and Rerank Service (spec §4.H).
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
	"github.com/delimatsuo/headhunter-sub008/internal/config"
	"github.com/delimatsuo/headhunter-sub008/internal/embedproviders"
	"github.com/delimatsuo/headhunter-sub008/internal/embedservice"
	"github.com/delimatsuo/headhunter-sub008/internal/healthcheck"
	"github.com/delimatsuo/headhunter-sub008/internal/mltrajectory"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
	"github.com/delimatsuo/headhunter-sub008/internal/rerankservice"
	"github.com/delimatsuo/headhunter-sub008/internal/scoring"
	"github.com/delimatsuo/headhunter-sub008/internal/searchorchestrator"
	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_DIR"), os.Getenv("ENVIRONMENT"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("search-service", cfg.Logging.Level)
	metricsClient := observability.NewMetricsClient("headhunter_search")

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
		Limit: cfg.RateLimits.HybridRPS, Period: time.Second,
	})
	api := engine.Group("/api/v1")
	api.Use(
		tenantmiddleware.TenantFromHeaders(cfg.Tenant),
		tenantmiddleware.RateLimit(rlManager, "hybrid"),
		tenantmiddleware.ErrorHandler(),
	)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}
	go func() {
		logger.Info("search-service listening", map[string]interface{}{"address": cfg.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("search-service: listener failed: %v", err)
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
	logger.Info("search-service stopped", nil)
}

// initAndServe performs the bounded-retry dependency init in the
// background (the listener above is already accepting connections),
// then registers the business route once every dependency is up —
// matching the documented listen-then-init-then-serve sequence (spec
// §4.I).
func initAndServe(cfg *config.Config, logger observability.Logger, metricsClient observability.MetricsClient, checker *healthcheck.Checker, api *gin.RouterGroup) {
	ctx := context.Background()

	var store *vectorstore.Adapter
	healthcheck.RunLazyInit(ctx, checker, resilience.RetryConfig{}, map[string]healthcheck.InitFunc{
		"database": func(ctx context.Context) error {
			db, err := sqlx.ConnectContext(ctx, "pgx", cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			store = vectorstore.New(db, vectorstore.Config{
				Schema: cfg.Database.Schema, Dimensions: cfg.Database.EmbeddingDimensions,
				EnableAutoMigrate: cfg.Database.EnableAutoMigrate,
			}, logger, metricsClient)
			return store.Initialize(ctx)
		},
	})
	if store == nil {
		logger.Error("database never became available, search-service will not serve requests", nil)
		return
	}

	var cache *cacheadapter.Adapter
	var embedSvc *embedservice.Service
	healthcheck.RunLazyInit(ctx, checker, resilience.RetryConfig{}, map[string]healthcheck.InitFunc{
		"cache": func(ctx context.Context) error {
			cache = cacheadapter.New(cacheadapter.Config{
				Address: cfg.Cache.Address, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
				CompressionThresholdBytes: cfg.Cache.CompressionThresholdBytes,
			}, logger, metricsClient)
			// cache is best-effort throughout this platform: a degraded
			// Redis never blocks startup, and this step does not probe it.
			return nil
		},
		"embed_provider": func(ctx context.Context) error {
			provider, err := buildEmbedProvider(ctx, cfg, logger, metricsClient)
			if err != nil {
				return err
			}
			embedSvc = embedservice.NewService(provider, store, logger, metricsClient)
			return nil
		},
	})
	if embedSvc == nil {
		logger.Error("embedding provider never became available, search-service will not serve requests", nil)
		return
	}

	var mlClient *mltrajectory.Client
	if cfg.ML.Enabled {
		mlClient = mltrajectory.New(mltrajectory.Config{
			BaseURL: cfg.ML.URL, Timeout: time.Duration(cfg.ML.TimeoutMillis) * time.Millisecond,
		}, logger, metricsClient)
	}

	rerankSvc := rerankservice.NewService(nil, nil, cache, rerankservice.Config{
		TTL: cfg.Rerank.CacheTTL, ModelVersion: "rerank-v1", WeightsVersion: cfg.Search.WeightsVersion,
	}, logger, metricsClient)
	if cfg.Rerank.Enabled {
		rerankSvc = buildRerankService(cfg, cache, logger, metricsClient)
	}

	svc := searchorchestrator.NewService(searchorchestrator.Config{
		Stage1PerMethodLimit: cfg.Search.PerMethodLimit,
		EngineVersion:        cfg.Search.EngineVersion,
		WeightsVersion:       cfg.Search.WeightsVersion,
		HybridCacheTTL:       10 * time.Minute,
		EnableMLShadow:       cfg.ML.Enabled && cfg.ML.ShadowMode,
	}, store, embedSvc, cache, scoring.NewCalculator(), mlClient, rerankSvc, logger, metricsClient)

	searchorchestrator.NewHandler(svc).Register(api)
	logger.Info("search-service dependencies initialized, routes registered", nil)
}

func buildEmbedProvider(ctx context.Context, cfg *config.Config, logger observability.Logger, metricsClient observability.MetricsClient) (embedproviders.Provider, error) {
	switch cfg.Embed.Provider {
	case "local":
		return embedproviders.NewLocalProvider(cfg.Embed.Dimensions), nil
	case "secondary":
		return embedproviders.NewBedrockProvider(ctx, embedproviders.BedrockConfig{
			Region: os.Getenv("AWS_REGION"), Dims: cfg.Embed.Dimensions,
		})
	default:
		primary, err := embedproviders.NewOpenAIProvider(embedproviders.OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"), Dims: cfg.Embed.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		secondary, err := embedproviders.NewBedrockProvider(ctx, embedproviders.BedrockConfig{
			Region: os.Getenv("AWS_REGION"), Dims: cfg.Embed.Dimensions,
		})
		if err != nil {
			logger.Warn("bedrock secondary embedding provider unavailable, running without fallback", map[string]interface{}{"error": err.Error()})
			return primary, nil
		}
		return embedproviders.NewFallbackChain(primary, secondary, logger, metricsClient)
	}
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
