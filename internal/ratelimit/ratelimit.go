package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobhunter/internal/model"
)

// BackendLimiter enforces a minimum delay between requests to the same feed
// backend, so several boards on one ATS do not hammer it in a burst.
type BackendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // key: backend name, e.g. "greenhouse"
	every    rate.Limit
}

// NewBackendLimiter creates a limiter allowing one request per minDelay for
// each backend. A zero minDelay disables limiting.
func NewBackendLimiter(minDelay time.Duration) *BackendLimiter {
	every := rate.Inf
	if minDelay > 0 {
		every = rate.Every(minDelay)
	}
	return &BackendLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
	}
}

func (l *BackendLimiter) limiterFor(backend string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[backend]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.every, 1)
	l.limiters[backend] = lim
	return lim
}

// Wait blocks until the backend may be called again. It returns an error if
// ctx ends first.
func (l *BackendLimiter) Wait(ctx context.Context, backend string) error {
	if err := l.limiterFor(backend).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", backend, err)
	}
	return nil
}

// RateLimitedSource waits for the backend limiter before delegating to the
// wrapped FeedSource.
type RateLimitedSource struct {
	inner   model.FeedSource
	limiter *BackendLimiter
	backend string
}

// NewRateLimitedSource wraps a FeedSource. All sources that hit the same
// backend should share one limiter.
func NewRateLimitedSource(inner model.FeedSource, limiter *BackendLimiter, backend string) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		backend: backend,
	}
}

func (s *RateLimitedSource) FetchPostings(ctx context.Context) ([]model.JobPosting, error) {
	if err := s.limiter.Wait(ctx, s.backend); err != nil {
		return nil, err
	}
	return s.inner.FetchPostings(ctx)
}
