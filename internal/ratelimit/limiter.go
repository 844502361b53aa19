package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter throttles events per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fallback consults primary and switches to secondary while primary errors.
type Fallback struct {
	primary   Limiter
	secondary Limiter
	logger    *zap.Logger
	degraded  atomic.Bool
}

// NewFallback composes two limiters.
func NewFallback(primary, secondary Limiter, logger *zap.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// Allow implements Limiter.
func (f *Fallback) Allow(ctx context.Context, key string) (Decision, error) {
	decision, err := f.primary.Allow(ctx, key)
	if err == nil {
		if f.degraded.CompareAndSwap(true, false) {
			f.logger.Info("primary rate limiter recovered")
		}
		return decision, nil
	}
	if f.degraded.CompareAndSwap(false, true) {
		f.logger.Warn("primary rate limiter unavailable; using fallback", zap.Error(err))
	}
	return f.secondary.Allow(ctx, key)
}
