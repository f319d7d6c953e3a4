// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the stages that talk
// to academic APIs and the speech endpoint.
//
// Implements: prd001-search (R5.3-R5.5); reused by prd002-ingestion and
// prd006-audio.
//
//	docs/ARCHITECTURE § Shared infrastructure.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// DefaultUserAgent identifies papercast to the academic APIs. arXiv asks
// automated clients to send a descriptive User-Agent (R5.3).
const DefaultUserAgent = "papercast/0.1 (research paper podcast pipeline)"

// RetryBaseDelay controls the base duration for exponential backoff on
// rate-limited responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const (
	defaultMaxRetries = 5
	defaultTimeout    = 30 * time.Second
)

// NewClient returns an HTTP client with the given timeout, falling back
// to 30 s when the timeout is zero.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewRequest builds a request with the User-Agent header set. An empty
// userAgent falls back to DefaultUserAgent.
func NewRequest(ctx context.Context, method, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// retryable reports whether a status code indicates a transient condition
// worth retrying. Semantic Scholar rate-limits with 429, arXiv with 503,
// and 408 means the server gave up waiting on us (R5.4).
func retryable(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries on 408, 429 and 503
// responses with exponential backoff. The delay starts at RetryBaseDelay
// (10 s) and doubles each attempt: 10 s, 20 s, 40 s, 80 s, 160 s. A
// Retry-After header carrying delta-seconds overrides the computed delay.
//
// When maxRetries is 0 the default (5) is used. On each retryable status
// the response body is drained and closed before sleeping. If the context
// is cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response is returned so the caller can
// inspect it.
//
// Requests carrying a body must populate GetBody so the body can be
// replayed on retry; http.NewRequestWithContext does this for the common
// reader types.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries — return the last response as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if after := retryAfter(resp); after > 0 {
			backoff = after
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a delta-seconds Retry-After header. HTTP-date values
// are ignored; neither arXiv nor Semantic Scholar sends them.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
