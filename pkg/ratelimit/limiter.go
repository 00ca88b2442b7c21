package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a slot if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Interval allows one request per interval with no burst
type Interval struct {
	limiter *rate.Limiter
}

// NewInterval creates a limiter that spaces requests at least interval apart.
// A zero or negative interval yields a limiter that never blocks.
func NewInterval(interval time.Duration) Limiter {
	if interval <= 0 {
		return Unlimited()
	}
	return &Interval{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// NewPerMinute creates a limiter allowing n requests per minute with a burst of burst
func NewPerMinute(n, burst int) Limiter {
	if n <= 0 {
		return Unlimited()
	}
	if burst <= 0 {
		burst = 1
	}
	return &Interval{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), burst)}
}

func (l *Interval) Allow() bool {
	return l.limiter.Allow()
}

func (l *Interval) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Unlimited returns a limiter that never blocks
func Unlimited() Limiter {
	return unlimited{}
}

type unlimited struct{}

func (unlimited) Allow() bool { return true }

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
