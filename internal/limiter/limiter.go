package limiter

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// DeleteLimiter paces delete calls across all cleaner workers.
// A nil *DeleteLimiter never waits.
type DeleteLimiter struct {
	rl *rate.Limiter
}

// NewDeleteLimiter returns a limiter allowing perSecond deletes per second,
// or nil when perSecond <= 0 (unlimited).
func NewDeleteLimiter(perSecond float64) *DeleteLimiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(perSecond))
	return &DeleteLimiter{rl: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until one more delete is allowed.
func (l *DeleteLimiter) Wait() {
	if l == nil {
		return
	}
	// Background never cancels, so Wait only fails for n > burst, which
	// cannot happen with n == 1.
	_ = l.rl.Wait(context.Background())
}

// Limit returns the configured rate, or 0 when unlimited.
func (l *DeleteLimiter) Limit() float64 {
	if l == nil {
		return 0
	}
	return float64(l.rl.Limit())
}
