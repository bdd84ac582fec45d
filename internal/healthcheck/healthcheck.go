// Package healthcheck implements the health/readiness and lazy-init
// pattern shared by every cmd/*/main.go (component I): the HTTP
// listener opens immediately with /health and /ready registered before
// any dependency is dialed, while a background goroutine initializes
// dependencies with bounded exponential-backoff retry and flips
// readiness from "initializing" to "ok" or "degraded".
package healthcheck

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/delimatsuo/headhunter-sub008/internal/observability"
)

// Status is the overall readiness classification.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusOK           Status = "ok"
	StatusDegraded     Status = "degraded"
)

// Check is one named dependency probe.
type Check struct {
	Name string
	Func func(ctx context.Context) error
}

// Checker tracks readiness state and a registry of dependency checks,
// matching the teacher's HealthChecker (ready flag + registered
// per-dependency CheckFunc) generalized to a tri-state status so
// "degraded but serving" is distinguishable from "not yet ready".
type Checker struct {
	mu     sync.RWMutex
	status Status
	checks map[string]Check
	logger observability.Logger
}

func NewChecker(logger observability.Logger) *Checker {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Checker{status: StatusInitializing, checks: make(map[string]Check), logger: logger}
}

// Register adds a named dependency probe. Safe to call before or after
// the HTTP listener opens.
func (c *Checker) Register(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = Check{Name: name, Func: fn}
}

func (c *Checker) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Checker) snapshotChecks() map[string]Check {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Check, len(c.checks))
	for k, v := range c.checks {
		out[k] = v
	}
	return out
}

func (c *Checker) runChecks(ctx context.Context) map[string]string {
	results := make(map[string]string)
	for name, check := range c.snapshotChecks() {
		if err := check.Func(ctx); err != nil {
			results[name] = "unhealthy: " + err.Error()
		} else {
			results[name] = "healthy"
		}
	}
	return results
}

// LivenessHandler always reports alive once the process is serving
// HTTP at all — it never depends on downstream state.
func (c *Checker) LivenessHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive", "time": time.Now().UTC().Format(time.RFC3339)})
}

// ReadinessHandler reports StatusInitializing while background init is
// still running (503), and otherwise runs every registered check,
// reporting "ok" or "degraded" (each 200 — degraded is a valid serving
// state per spec §9, not a failure).
func (c *Checker) ReadinessHandler(ctx *gin.Context) {
	status := c.Status()
	if status == StatusInitializing {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": string(StatusInitializing)})
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	results := c.runChecks(checkCtx)

	ctx.JSON(http.StatusOK, gin.H{
		"status": string(status),
		"checks": results,
	})
}

// HealthHandler returns the combined status plus the per-dependency
// check map, for dashboards and manual debugging.
func (c *Checker) HealthHandler(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	results := c.runChecks(checkCtx)

	status := c.Status()
	code := http.StatusOK
	if status == StatusInitializing {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, gin.H{
		"status": string(status),
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": results,
	})
}

// RegisterRoutes wires the three probe endpoints onto engine.
func (c *Checker) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", c.HealthHandler)
	engine.GET("/ready", c.ReadinessHandler)
	engine.GET("/live", c.LivenessHandler)
}
