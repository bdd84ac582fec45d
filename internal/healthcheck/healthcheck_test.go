package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(checker *Checker) *gin.Engine {
	engine := gin.New()
	checker.RegisterRoutes(engine)
	return engine
}

func TestReadinessHandler_InitializingReturns503(t *testing.T) {
	checker := NewChecker(nil)
	engine := newTestEngine(checker)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessHandler_OKAfterInitComplete(t *testing.T) {
	checker := NewChecker(nil)
	checker.SetStatus(StatusOK)
	engine := newTestEngine(checker)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_ReportsFailingCheck(t *testing.T) {
	checker := NewChecker(nil)
	checker.SetStatus(StatusDegraded)
	checker.Register("vectorstore", func(ctx context.Context) error { return errors.New("connection refused") })
	engine := newTestEngine(checker)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestLivenessHandler_AlwaysOK(t *testing.T) {
	checker := NewChecker(nil)
	engine := newTestEngine(checker)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunLazyInit_AllSucceedMarksOK(t *testing.T) {
	checker := NewChecker(nil)
	RunLazyInit(context.Background(), checker, resilience.RetryConfig{MaxRetries: 1}, map[string]InitFunc{
		"vectorstore": func(ctx context.Context) error { return nil },
	})
	assert.Equal(t, StatusOK, checker.Status())
}

func TestRunLazyInit_OneFailureMarksDegraded(t *testing.T) {
	checker := NewChecker(nil)
	RunLazyInit(context.Background(), checker, resilience.RetryConfig{MaxRetries: 1}, map[string]InitFunc{
		"vectorstore": func(ctx context.Context) error { return errors.New("unreachable") },
	})
	require.Equal(t, StatusDegraded, checker.Status())
}
