package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pauseFunc blocks for d or until ctx is done. Tests replace it.
var pauseFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limiter bounds the request rate to the remote service: an optional
// per-host token bucket before each request and a fixed pause after it.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	delay    time.Duration
}

// NewLimiter creates a limiter. requestsPerSecond <= 0 disables the token
// bucket; delay <= 0 disables the pause.
func NewLimiter(requestsPerSecond float64, burst int, delay time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		delay:    delay,
	}
}

// Delay returns the pause applied after each request
func (l *Limiter) Delay() time.Duration {
	return l.delay
}

// RaiseDelay lifts the pause to at least d
func (l *Limiter) RaiseDelay(d time.Duration) {
	if d > l.delay {
		l.delay = d
	}
}

// Wait waits for rate limit clearance for the given URL
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l.rps <= 0 {
		return nil
	}
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}
	return l.getLimiter(domain).Wait(ctx)
}

// Pause applies the fixed post-request delay
func (l *Limiter) Pause(ctx context.Context) error {
	if l.delay <= 0 {
		return nil
	}
	return pauseFunc(ctx, l.delay)
}

// getLimiter returns the rate limiter for a domain
func (l *Limiter) getLimiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[domain] = limiter
	}
	return limiter
}

// extractDomain extracts the domain from a URL
func extractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
