package resilience

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by non-waiting limiters when no token is available.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	Name string `mapstructure:"name"`
	// Rate is tokens per second.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
	// Wait blocks callers until a token is available instead of
	// rejecting them with ErrRateLimited.
	Wait bool `mapstructure:"wait"`

	OnLimit func(name string) `mapstructure:"-"`
}

// RateLimiter is a token bucket backed by golang.org/x/time/rate.
type RateLimiter struct {
	cfg     RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter. Rate defaults to 10/s and Burst to
// max(1, Rate).
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{cfg: cfg, limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow takes a token without blocking.
func (rl *RateLimiter) Allow() bool { return rl.limiter.Allow() }

// Take applies the configured policy: wait for a token, or fail fast
// with ErrRateLimited.
func (rl *RateLimiter) Take(ctx context.Context) error {
	if rl.cfg.Wait {
		if err := rl.limiter.Wait(ctx); err != nil {
			rl.limited()
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return nil
	}
	if !rl.limiter.Allow() {
		rl.limited()
		return ErrRateLimited
	}
	return nil
}

// Execute runs fn after Take succeeds.
func (rl *RateLimiter) Execute(ctx context.Context, fn func() error) error {
	if err := rl.Take(ctx); err != nil {
		return err
	}
	return fn()
}

// Tokens reports the tokens currently available.
func (rl *RateLimiter) Tokens() float64 { return rl.limiter.Tokens() }

func (rl *RateLimiter) limited() {
	if rl.cfg.OnLimit != nil {
		rl.cfg.OnLimit(rl.cfg.Name)
	}
}
