// Package ratelimit guards upstream calls with a concurrency gate, an optional
// request-rate bucket and exponential retry of transient failures.
//
// A Gate is built once per upstream and shared by every caller of that upstream.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter runs fn under the limiter's policy.
type Limiter interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	// MaxConcurrent bounds in-flight calls.
	MaxConcurrent int64
	// Requests per Window feed the token bucket. Zero disables it.
	Requests int
	Window   time.Duration
	// MaxAttempts includes the first call.
	MaxAttempts int
	// BaseDelay doubles after every failed attempt.
	BaseDelay time.Duration
	// RequestTimeout bounds a single attempt. A timed out attempt is retried.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  40,
		Requests:       40,
		Window:         10 * time.Second,
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

type Gate struct {
	name   string
	cfg    Config
	sem    *semaphore.Weighted
	bucket *rate.Limiter
	logger *logrus.Logger
}

var _ Limiter = (*Gate)(nil)

func New(name string, cfg Config, logger *logrus.Logger) *Gate {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	g := &Gate{
		name:   name,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
	if cfg.Requests > 0 && cfg.Window > 0 {
		g.bucket = rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Requests)), cfg.Requests)
	}
	return g
}

// Do calls fn until it succeeds, fails with a non-transient error, or the
// attempt budget runs out. Permits are held per attempt, never across a
// backoff sleep.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.cfg.MaxAttempts-1)), ctx)

	attempts := 0
	operation := func() error {
		attempts++
		err := g.attempt(ctx, fn)
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		g.logger.WithFields(logrus.Fields{
			"upstream": g.name,
			"attempt":  attempts,
			"wait":     wait,
		}).Warnf("transient upstream failure: %v", err)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && IsTransient(err) {
		return fmt.Errorf("%s: %w after %d attempts: %w", g.name, ErrRetriesExhausted, attempts, err)
	}
	return err
}

func (g *Gate) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	if g.bucket != nil {
		if err := g.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func (g *Gate) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = g.cfg.BaseDelay << g.cfg.MaxAttempts
	b.MaxElapsedTime = 0
	return b
}

type noop struct{}

// Noop returns a Limiter that calls fn once with no gating.
func Noop() Limiter { return noop{} }

func (noop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
