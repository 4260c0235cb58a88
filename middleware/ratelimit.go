package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/xraph/usecase"
)

// RateLimit returns middleware that admits at most limit Execute calls per
// second with the given burst. A caller blocks until a token is available;
// if ctx ends first the run fails with the context error and Execute is
// not called.
func RateLimit(limit float64, burst int) Middleware {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return RateLimitWithLimiter(limiter)
}

// RateLimitWithLimiter returns rate limit middleware backed by limiter, so
// several engines can share one budget.
func RateLimitWithLimiter(limiter *rate.Limiter) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit %s: %w", r.Name, err)
		}
		return next(ctx)
	}
}
