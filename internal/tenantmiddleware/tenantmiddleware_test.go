package tenantmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/config"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

func init() { gin.SetMode(gin.TestMode) }

func testTenantConfig() config.TenantConfig {
	return config.TenantConfig{
		HeaderTenantID:  "x-tenant-id",
		HeaderRequestID: "x-request-id",
		HeaderTraceID:   "x-trace-id",
		HeaderUserID:    "x-user-id",
		BypassIdentity:  "tenant-bypass",
	}
}

func TestTenantFromHeaders_MissingTenantIsRejected(t *testing.T) {
	engine := gin.New()
	engine.Use(TenantFromHeaders(testTenantConfig()))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantFromHeaders_PopulatesContext(t *testing.T) {
	engine := gin.New()
	engine.Use(TenantFromHeaders(testTenantConfig()))
	engine.GET("/x", func(c *gin.Context) {
		tc := FromContext(c)
		assert.Equal(t, "acme", tc.TenantID)
		assert.Equal(t, "req-1", tc.RequestID)
		assert.False(t, tc.CrossTenantAccess)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("x-tenant-id", "acme")
	req.Header.Set("x-request-id", "req-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantFromHeaders_BypassIdentitySetsCrossTenantAccess(t *testing.T) {
	engine := gin.New()
	engine.Use(TenantFromHeaders(testTenantConfig()))
	engine.GET("/x", func(c *gin.Context) {
		assert.True(t, FromContext(c).CrossTenantAccess)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("x-tenant-id", "tenant-bypass")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_BlocksAfterLimitExhausted(t *testing.T) {
	engine := gin.New()
	engine.Use(TenantFromHeaders(testTenantConfig()))
	manager := resilience.NewRateLimiterManager(resilience.RateLimiterConfig{Limit: 1, Period: time.Second})
	engine.Use(RateLimit(manager, "hybrid"))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	mk := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("x-tenant-id", "acme")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, mk().Code)
	assert.Equal(t, http.StatusTooManyRequests, mk().Code)
}
