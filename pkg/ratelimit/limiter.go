package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests.
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a token if so.
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows requestsPerSecond on average with bursts of up to
// burst requests. A non-positive rate disables limiting.
func NewTokenBucket(requestsPerSecond float64, burst int) *TokenBucket {
	if requestsPerSecond <= 0 {
		return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(requestsPerSecond)))
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited reports whether this bucket never blocks.
func (tb *TokenBucket) Unlimited() bool {
	return tb.limiter.Limit() == rate.Inf
}
