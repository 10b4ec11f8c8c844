package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests to stay under the exchange's request
// budget. It only delays calls; it never retries them.
type RateLimiter struct {
	limiter *rate.Limiter
	metrics *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	waitNanos       atomic.Int64
}

// New creates a RateLimiter allowing requests per period, with a burst of
// the full budget.
func New(requests int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(perSecond(requests, period), requests),
		metrics: &Metrics{},
	}
}

func perSecond(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// Wait blocks until a request may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.metrics.totalRequests.Add(1)
	start := time.Now()
	err := r.limiter.Wait(ctx)
	r.metrics.waitNanos.Add(int64(time.Since(start)))
	if err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if a request may proceed immediately.
func (r *RateLimiter) Allow() bool {
	r.metrics.totalRequests.Add(1)
	if r.limiter.Allow() {
		r.metrics.allowedRequests.Add(1)
		return true
	}
	r.metrics.deniedRequests.Add(1)
	return false
}

// SetLimit updates the budget to requests per period.
func (r *RateLimiter) SetLimit(requests int, period time.Duration) {
	r.limiter.SetLimit(perSecond(requests, period))
	r.limiter.SetBurst(requests)
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
		TotalWait:       time.Duration(r.metrics.waitNanos.Load()),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of requests that were allowed.
	AllowedRequests int64
	// DeniedRequests is the number of requests that were refused or cancelled.
	DeniedRequests int64
	// TotalWait is the cumulative time spent blocked in Wait.
	TotalWait time.Duration
}
