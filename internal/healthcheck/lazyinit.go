package healthcheck

import (
	"context"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/resilience"
)

// InitFunc performs one dependency's blocking initialization (opening
// a DB pool, verifying a schema, warming a provider). It is retried by
// RunLazyInit until it succeeds or the bounded retry budget runs out.
type InitFunc func(ctx context.Context) error

// RunLazyInit runs each InitFunc, in unspecified (map iteration) order,
// with bounded exponential backoff, flips checker to StatusOK if every one eventually succeeds,
// or StatusDegraded if any exhausts its retry budget — it never blocks
// the caller's HTTP listener from opening, since main.go is expected to
// invoke this in its own goroutine (spec §4.I).
func RunLazyInit(ctx context.Context, checker *Checker, retryCfg resilience.RetryConfig, inits map[string]InitFunc) {
	backoff := resilience.NewExponentialBackoff(retryCfg)
	degraded := false

	for name, init := range inits {
		fn := init
		err := backoff.Execute(ctx, func(ctx context.Context) error { return fn(ctx) })
		if err != nil {
			degraded = true
			checker.Register(name, func(ctx context.Context) error { return err })
			continue
		}
		checker.Register(name, func(ctx context.Context) error { return nil })
	}

	if degraded {
		checker.SetStatus(StatusDegraded)
	} else {
		checker.SetStatus(StatusOK)
	}
}

// RetryForever is a convenience for a dependency that should keep
// retrying in the background indefinitely rather than giving up and
// marking the service degraded (used for deployments where a
// dependency is expected to come up slightly after the service does).
func RetryForever(ctx context.Context, interval time.Duration, fn InitFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
