// Command embed-service runs the embedding ingestion HTTP API: POST
// /api/v1/embed/upsert and POST /api/v1/embed/query, backed by the
// Vector Store Adapter and a pluggable embedding provider (spec §4.D).
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

	"github.com/delimatsuo/headhunter-sub008/internal/config"
	"github.com/delimatsuo/headhunter-sub008/internal/embedproviders"
	"github.com/delimatsuo/headhunter-sub008/internal/embedservice"
	"github.com/delimatsuo/headhunter-sub008/internal/healthcheck"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_DIR"), os.Getenv("ENVIRONMENT"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("embed-service", cfg.Logging.Level)
	metricsClient := observability.NewMetricsClient("headhunter_embed")

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
		tenantmiddleware.RateLimit(rlManager, "embed"),
		tenantmiddleware.ErrorHandler(),
	)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}
	go func() {
		logger.Info("embed-service listening", map[string]interface{}{"address": cfg.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("embed-service: listener failed: %v", err)
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
	logger.Info("embed-service stopped", nil)
}

// initAndServe mirrors search-service's listen-then-init-then-serve
// sequence (spec §4.I): the database must be up before the embedding
// provider closure runs, so the two stay in separate RunLazyInit calls
// rather than one map whose iteration order is undefined.
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
		logger.Error("database never became available, embed-service will not serve requests", nil)
		return
	}

	var embedSvc *embedservice.Service
	healthcheck.RunLazyInit(ctx, checker, resilience.RetryConfig{}, map[string]healthcheck.InitFunc{
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
		logger.Error("embedding provider never became available, embed-service will not serve requests", nil)
		return
	}

	embedservice.NewHandler(embedSvc).Register(api)
	logger.Info("embed-service dependencies initialized, routes registered", nil)
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
