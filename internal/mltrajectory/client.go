// Package mltrajectory implements the typed client to the external ML
// Trajectory service: a short-timeout, circuit-breaker wrapped HTTP
// client whose every failure mode degrades to "no prediction" rather
// than failing the caller. The ML service itself (its HTTP handlers,
// model, training) is an external collaborator out of this core's
// scope; only this client lives here.
package mltrajectory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

// Config configures the Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker resilience.Config
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 100 * time.Millisecond
	}
	return c
}

// Client calls POST /trajectory/predict on the ML service.
type Client struct {
	httpClient *http.Client
	cfg        Config
	breaker    *resilience.CircuitBreaker
	logger     observability.Logger
	metrics    observability.MetricsClient
}

func New(cfg Config, logger observability.Logger, metrics observability.MetricsClient) *Client {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	cfg = cfg.withDefaults()
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		breaker:    resilience.NewCircuitBreaker("ml-trajectory", cfg.Breaker, logger, metrics),
		logger:     logger,
		metrics:    metrics,
	}
}

type predictRequest struct {
	TenantID     string   `json:"tenantId"`
	CandidateIDs []string `json:"candidateIds"`
}

type predictResponse struct {
	Predictions map[string]models.TrajectoryPrediction `json:"predictions"`
}

// Predict requests trajectory predictions for up to len(candidateIDs)
// candidates. Every failure path — breaker open, context deadline,
// non-2xx, malformed body — returns (nil, false) rather than an error,
// so search never fails because ML is unreachable.
func (c *Client) Predict(ctx context.Context, tenantCtx models.TenantContext, candidateIDs []string) (map[string]models.TrajectoryPrediction, bool) {
	if len(candidateIDs) == 0 {
		return nil, true
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.doPredict(ctx, tenantCtx, candidateIDs)
	})
	c.metrics.RecordOperation("ml_trajectory", "predict", err == nil, time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("ml trajectory prediction unavailable", map[string]interface{}{
			"tenantId": tenantCtx.TenantID,
			"error":    err.Error(),
		})
		return nil, false
	}
	preds, _ := result.(map[string]models.TrajectoryPrediction)
	return preds, true
}

func (c *Client) doPredict(ctx context.Context, tenantCtx models.TenantContext, candidateIDs []string) (map[string]models.TrajectoryPrediction, error) {
	body, err := json.Marshal(predictRequest{TenantID: tenantCtx.TenantID, CandidateIDs: candidateIDs})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/trajectory/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-tenant-id", tenantCtx.TenantID)
	req.Header.Set("x-request-id", tenantCtx.RequestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml trajectory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ml trajectory returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	return decoded.Predictions, nil
}

// Health reports "healthy" when the breaker is closed or half-open,
// "unavailable" when it is open — used to populate
// meta.mlTrajectory on every search response.
func (c *Client) Health() string {
	if c.breaker.State() == resilience.StateOpen {
		return "unavailable"
	}
	return "healthy"
}
