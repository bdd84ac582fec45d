package resilience

import (
	"sync"
	"time"
)

// RateLimiterConfig configures a token-bucket RateLimiter.
type RateLimiterConfig struct {
	Limit  int           // max tokens per Period
	Period time.Duration // refill period
}

// RateLimiter is a token-bucket limiter used for per-tenant request
// admission (HYBRID_RPS, RERANK_RPS). The bucket holds at most Limit
// tokens; there is no separate burst size.
type RateLimiter struct {
	name       string
	config     RateLimiterConfig
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func NewRateLimiter(name string, cfg RateLimiterConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	return &RateLimiter{
		name:       name,
		config:     cfg,
		tokens:     float64(cfg.Limit),
		lastRefill: time.Now(),
	}
}

// Allow reports whether a request may proceed, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	if elapsed > 0 {
		refill := elapsed.Seconds() * float64(r.config.Limit) / r.config.Period.Seconds()
		if refill > 0 {
			r.tokens = minFloat64(r.tokens+refill, float64(r.config.Limit))
			r.lastRefill = now
		}
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RateLimiterManager keys rate limiters by an arbitrary name, typically
// "{tenantId}:{bucket}" so each tenant gets an independent bucket per
// RPS knob (hybrid search vs rerank).
type RateLimiterManager struct {
	mu       sync.RWMutex
	limiters map[string]*RateLimiter
	defaults RateLimiterConfig
}

func NewRateLimiterManager(defaults RateLimiterConfig) *RateLimiterManager {
	return &RateLimiterManager{limiters: make(map[string]*RateLimiter), defaults: defaults}
}

func (m *RateLimiterManager) Get(name string) *RateLimiter {
	m.mu.RLock()
	rl, ok := m.limiters[name]
	m.mu.RUnlock()
	if ok {
		return rl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if rl, ok := m.limiters[name]; ok {
		return rl
	}
	rl = NewRateLimiter(name, m.defaults)
	m.limiters[name] = rl
	return rl
}
