// Package tenantmiddleware provides the gin middleware every service's
// router installs ahead of its handlers: tenant extraction from
// gateway-validated headers, per-tenant rate limiting, and request
// logging. The core never validates JWTs itself — that's the
// gateway's job — it only rejects requests missing a tenant identity.
package tenantmiddleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/config"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

const tenantContextKey = "headhunter.tenantContext"

// TenantFromHeaders reads the gateway-validated tenant headers into a
// models.TenantContext and stores it on the gin context, rejecting any
// request with no tenant ID. bypassIdentity is the single documented
// cross-tenant identity; any other tenant ID sets CrossTenantAccess
// false.
func TenantFromHeaders(cfg config.TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(cfg.HeaderTenantID)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant identity"})
			return
		}

		requestID := c.GetHeader(cfg.HeaderRequestID)
		if requestID == "" {
			// Gateway is expected to set this; generate one so every
			// downstream log line still has something to correlate on.
			requestID = uuid.NewString()
		}

		tc := models.TenantContext{
			TenantID:          tenantID,
			RequestID:         requestID,
			TraceID:           c.GetHeader(cfg.HeaderTraceID),
			UserID:            c.GetHeader(cfg.HeaderUserID),
			CrossTenantAccess: cfg.BypassIdentity != "" && tenantID == cfg.BypassIdentity,
		}
		c.Set(tenantContextKey, tc)
		c.Next()
	}
}

// FromContext retrieves the TenantContext stored by TenantFromHeaders.
// Safe to call from any handler downstream of that middleware.
func FromContext(c *gin.Context) models.TenantContext {
	if v, ok := c.Get(tenantContextKey); ok {
		if tc, ok := v.(models.TenantContext); ok {
			return tc
		}
	}
	return models.TenantContext{}
}

// RateLimit enforces a per-tenant token bucket keyed by "{tenantId}:{bucket}",
// returning 429 once exhausted.
func RateLimit(manager *resilience.RateLimiterManager, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := FromContext(c)
		if tc.TenantID == "" {
			c.Next()
			return
		}
		limiter := manager.Get(tc.TenantID + ":" + bucket)
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one structured line per request, matching the
// teacher's api.RequestLogger shape but through the zerolog-backed
// observability.Logger instead of the standard logger.
func RequestLogger(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		tc := FromContext(c)
		logger.Info("http request", map[string]interface{}{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"tenantId":  tc.TenantID,
			"requestId": tc.RequestID,
			"crossTenantAccess": tc.CrossTenantAccess,
		})
	}
}

// ErrorHandler classifies any error gin has collected for this request
// through apperrors.Classify/Message so every service answers failures
// at a single boundary (spec's closed error-kind taxonomy).
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		if c.Writer.Written() {
			return
		}
		c.JSON(apperrors.Classify(err).HTTPStatus(), gin.H{"error": apperrors.Message(err)})
	}
}
