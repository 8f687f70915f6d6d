// Package ratelimit paces outbound calls to third-party APIs with a token
// bucket per collaborator.
package ratelimit

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Quota is a collaborator's documented request allowance.
type Quota struct {
	PerSecond float64
	Burst     int
}

// NewLimiter returns a token bucket for the quota. A non-positive rate means
// unlimited.
func NewLimiter(q Quota) *rate.Limiter {
	if q.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := q.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(q.PerSecond), burst)
}

type transport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewTransport wraps base so every request waits for a token first. The wait
// honours the request context.
func NewTransport(base http.RoundTripper, limiter *rate.Limiter) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, limiter: limiter}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", req.URL.Host, err)
	}
	return t.base.RoundTrip(req)
}

// NewClient is an http.Client paced by the quota.
func NewClient(q Quota, timeoutClient *http.Client) *http.Client {
	c := &http.Client{}
	if timeoutClient != nil {
		*c = *timeoutClient
	}
	c.Transport = NewTransport(c.Transport, NewLimiter(q))
	return c
}
