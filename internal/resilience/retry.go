package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures ExponentialBackoff. Zero values fall back to
// sane defaults.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Multiplier      float64
	MaxRetries      int
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.MaxElapsedTime <= 0 {
		c.MaxElapsedTime = 30 * time.Second
	}
	if c.Multiplier <= 1.0 {
		c.Multiplier = 2.0
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// ExponentialBackoff retries fn with jittered exponential delay between
// attempts, bailing out on context cancellation, max retries, or max
// elapsed time — whichever comes first.
type ExponentialBackoff struct {
	config RetryConfig
}

func NewExponentialBackoff(cfg RetryConfig) *ExponentialBackoff {
	return &ExponentialBackoff{config: cfg.withDefaults()}
}

func (e *ExponentialBackoff) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	attempt := 0

	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		attempt++
		if attempt >= e.config.MaxRetries {
			return err
		}
		if time.Since(start) >= e.config.MaxElapsedTime {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-time.After(e.nextDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *ExponentialBackoff) nextDelay(attempt int) time.Duration {
	delay := float64(e.config.InitialInterval) * math.Pow(e.config.Multiplier, float64(attempt-1))
	if delay > float64(e.config.MaxInterval) {
		delay = float64(e.config.MaxInterval)
	}
	jitter := delay * 0.2 * (rand.Float64()*2 - 1)
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
