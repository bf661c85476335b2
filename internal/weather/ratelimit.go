package weather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedSource wraps a Source with a token bucket shared by both calls.
// It only delays requests; it never retries them.
type RateLimitedSource struct {
	source  Source
	limiter *rate.Limiter
}

// NewRateLimitedSource wraps source. rps may be fractional; burst is the
// bucket size.
func NewRateLimitedSource(source Source, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Current waits for a token, then forwards to the wrapped source.
func (r *RateLimitedSource) Current(ctx context.Context, q LocationQuery) (*CurrentConditions, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("current conditions for %s: %w: rate limit wait: %v", q, ErrServiceUnavailable, err)
	}
	return r.source.Current(ctx, q)
}

// Forecast waits for a token, then forwards to the wrapped source.
func (r *RateLimitedSource) Forecast(ctx context.Context, q LocationQuery) ([]ForecastSample, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("forecast for %s: %w: rate limit wait: %v", q, ErrServiceUnavailable, err)
	}
	return r.source.Forecast(ctx, q)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*RateLimitedSource)(nil)
)
