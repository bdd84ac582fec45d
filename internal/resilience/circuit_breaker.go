// Package resilience implements the circuit breaker, retry, and rate
// limiter primitives every outbound adapter (vector store, cache,
// embedding provider, rerank provider, ML client) wraps its calls in.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/delimatsuo/headhunter-sub008/internal/observability"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var (
	ErrOpen           = errors.New("circuit breaker open")
	ErrTimeout        = errors.New("circuit breaker call timed out")
	ErrTooManyRequests = errors.New("circuit breaker half-open request limit exceeded")
)

// Config tunes a CircuitBreaker. Zero values are replaced with the
// defaults below.
type Config struct {
	FailureThreshold    int           // consecutive failures that force Open
	FailureRatio        float64       // failure ratio over MinimumRequestCount that forces Open
	ResetTimeout        time.Duration // Open -> HalfOpen cooldown
	SuccessThreshold    int           // consecutive HalfOpen successes that close the breaker
	CallTimeout         time.Duration // per-call timeout enforced by Execute
	MaxRequestsHalfOpen int           // concurrent probe requests allowed while HalfOpen
	MinimumRequestCount int           // minimum samples before FailureRatio applies
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.6
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 5 * time.Second
	}
	if c.MaxRequestsHalfOpen <= 0 {
		c.MaxRequestsHalfOpen = 5
	}
	if c.MinimumRequestCount <= 0 {
		c.MinimumRequestCount = 10
	}
	return c
}

type counts struct {
	requests            int
	totalFailures        int
	consecutiveFailures  int
	consecutiveSuccesses int
}

// CircuitBreaker guards a single named dependency (e.g. one provider).
// Safe for concurrent use.
type CircuitBreaker struct {
	name    string
	config  Config
	logger  observability.Logger
	metrics observability.MetricsClient

	mu               sync.Mutex
	state            State
	counts           counts
	lastStateChange  time.Time
	halfOpenInFlight int32
}

// NewCircuitBreaker constructs a breaker named name (used in logs and
// metric labels).
func NewCircuitBreaker(name string, cfg Config, logger observability.Logger, metrics observability.MetricsClient) *CircuitBreaker {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CircuitBreaker{
		name:            name,
		config:          cfg.withDefaults(),
		logger:          logger,
		metrics:         metrics,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn under the breaker's protection, enforcing a per-call
// timeout and updating the breaker's state from the outcome. ctx
// cancellation always wins over the breaker's own timeout.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := cb.before(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, cb.config.CallTimeout)
	defer cancel()

	type result struct {
		val interface{}
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		resultCh <- result{val: v, err: err}
	}()

	select {
	case <-ctx.Done():
		cb.after(false)
		return nil, ctx.Err()
	case <-callCtx.Done():
		cb.after(false)
		return nil, ErrTimeout
	case r := <-resultCh:
		cb.after(r.err == nil)
		return r.val, r.err
	}
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastStateChange) > cb.config.ResetTimeout {
			cb.transitionLocked(StateHalfOpen)
			cb.halfOpenInFlight = 1
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		if cb.halfOpenInFlight >= int32(cb.config.MaxRequestsHalfOpen) {
			return ErrTooManyRequests
		}
		cb.halfOpenInFlight++
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) after(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenInFlight > 0 {
		cb.halfOpenInFlight--
	}

	cb.counts.requests++
	if success {
		cb.counts.consecutiveFailures = 0
		cb.counts.consecutiveSuccesses++
		if cb.state == StateHalfOpen && cb.counts.consecutiveSuccesses >= cb.config.SuccessThreshold {
			cb.transitionLocked(StateClosed)
		}
		return
	}

	cb.counts.totalFailures++
	cb.counts.consecutiveFailures++
	cb.counts.consecutiveSuccesses = 0

	if cb.state == StateHalfOpen {
		cb.transitionLocked(StateOpen)
		return
	}

	if cb.counts.consecutiveFailures >= cb.config.FailureThreshold {
		cb.transitionLocked(StateOpen)
		return
	}

	if cb.counts.requests >= cb.config.MinimumRequestCount {
		ratio := float64(cb.counts.totalFailures) / float64(cb.counts.requests)
		if ratio >= cb.config.FailureRatio {
			cb.transitionLocked(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	cb.state = to
	cb.lastStateChange = time.Now()
	cb.counts = counts{}
	cb.logger.Info("circuit breaker state change", map[string]interface{}{
		"breaker": cb.name, "from": from.String(), "to": to.String(),
	})
	cb.metrics.RecordGauge("circuit_breaker_state", float64(to), map[string]string{"breaker": cb.name})
}

// State returns the current state, primarily for health reporting.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Snapshot is a point-in-time view of one breaker's state. No HTTP
// endpoint currently serves it.
type Snapshot struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastStateChange     string `json:"lastStateChange"`
}

func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Snapshot{
		Name:                cb.name,
		State:               cb.state.String(),
		ConsecutiveFailures: cb.counts.consecutiveFailures,
		LastStateChange:     cb.lastStateChange.Format(time.RFC3339),
	}
}

// Reset forces the breaker back to Closed; used by tests and operator
// tooling, never by request-handling code.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
}

// Manager lazily creates and retrieves named breakers so adapters don't
// each need their own construction wiring.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	defaults Config
	logger   observability.Logger
	metrics  observability.MetricsClient
}

func NewManager(defaults Config, logger observability.Logger, metrics observability.MetricsClient) *Manager {
	return &Manager{
		breakers: make(map[string]*CircuitBreaker),
		defaults: defaults,
		logger:   logger,
		metrics:  metrics,
	}
}

func (m *Manager) Get(name string) *CircuitBreaker {
	m.mu.RLock()
	cb, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	cb = NewCircuitBreaker(name, m.defaults, m.logger, m.metrics)
	m.breakers[name] = cb
	return cb
}

func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.breakers))
	for _, cb := range m.breakers {
		out = append(out, cb.Snapshot())
	}
	return out
}
