// Package ratelimit gives every outbound verifier client (meta-search, LLM,
// place-search) a shared token-bucket pacing primitive, so a misconfigured
// batch size can't hammer a rate-limited third party into a 429 streak.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces calls to one external endpoint.
type Limiter struct {
	limiter *rate.Limiter
}

// New builds a Limiter allowing ratePerSecond requests/sec with a burst of
// burst. ratePerSecond <= 0 disables limiting (Wait always returns immediately).
func New(ratePerSecond float64, burst int) *Limiter {
	if ratePerSecond <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until the next request is allowed to proceed, or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
