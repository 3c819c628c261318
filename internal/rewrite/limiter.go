package rewrite

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out rewrite calls evenly across a minute.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter allows perMinute calls per minute with no burst beyond one.
// perMinute <= 0 disables limiting.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)}
}

// Allow reports whether a call may go out now, consuming a token if so.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// RetryAfter estimates how long until the next call would be allowed.
func (l *Limiter) RetryAfter() time.Duration {
	r := l.lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 0
	}
	return r.Delay()
}
