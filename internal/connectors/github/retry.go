package github

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// MaxAttempts is the total number of tries for transient statuses.
	MaxAttempts = 5

	// RetryDelay is the initial backoff, doubled after each attempt.
	RetryDelay = time.Second
)

// transientStatuses are retried with backoff: secondary rate limiting
// plus the common upstream-unavailable statuses. Everything else is
// surfaced to the caller immediately.
var transientStatuses = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// SleepFunc suspends for d or until the context is cancelled.
// Injected so tests can run the retry loop against a recorded clock.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryTransport is an http.RoundTripper with bounded exponential
// backoff on transient statuses. Both API clients and the seed fetcher
// share one instance, so every outbound request is rate limited and
// retried the same way. It holds no per-request state.
type RetryTransport struct {
	// Base performs the actual request. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Limiter gates requests and absorbs response headers. Optional.
	Limiter *RateLimiter

	// MaxAttempts overrides the total try count. Defaults to MaxAttempts.
	MaxAttempts int

	// InitialDelay overrides the first backoff. Defaults to RetryDelay.
	InitialDelay time.Duration

	// Sleep overrides the backoff wait. Defaults to a context-aware sleep.
	Sleep SleepFunc
}

// RoundTrip implements http.RoundTripper. After the final attempt the
// last response is returned as-is so the caller sees the status that
// exhausted the retries.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.MaxAttempts
	if attempts <= 0 {
		attempts = MaxAttempts
	}
	delay := t.InitialDelay
	if delay <= 0 {
		delay = RetryDelay
	}
	sleep := t.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	ctx := req.Context()
	var resp *http.Response

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Rewind the body for retried POSTs (GraphQL queries).
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
		}

		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var err error
		resp, err = base.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if t.Limiter != nil {
			t.Limiter.UpdateFromResponse(resp)
		}

		if !transientStatuses[resp.StatusCode] {
			return resp, nil
		}
		if attempt == attempts-1 {
			break
		}

		wait := delay
		if ra := retryAfter(resp); ra > 0 {
			wait = ra
		}
		drainBody(resp)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return resp, nil
}

// retryAfter parses the Retry-After header, zero if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// drainBody releases the response so the connection can be reused.
func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
