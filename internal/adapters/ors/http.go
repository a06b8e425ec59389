package ors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type httpStatusError struct {
	Code int
	Body string
	// RetryAfter is the server's requested wait on a 429 or 503, if any.
	RetryAfter time.Duration
	// QuotaSpent is set when ORS reports no requests left in the current
	// window; a retry cannot succeed before the quota resets.
	QuotaSpent bool
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			QuotaSpent: resp.StatusCode == http.StatusTooManyRequests &&
				resp.Header.Get("X-Ratelimit-Remaining") == "0",
		}
	}
	return resp, nil
}

// Variables so tests can shorten them.
var (
	retryBaseDelay = 200 * time.Millisecond
	maxRetryAfter  = 5 * time.Second
)

// parseRetryAfter reads the delay-seconds form of Retry-After. ORS never
// sends the HTTP-date form.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
// A Retry-After from the server replaces the backoff step, up to
// maxRetryAfter.
func (c *Client) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := retryBaseDelay

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		wait := backoff
		var he *httpStatusError
		if errors.As(err, &he) && he.RetryAfter > 0 {
			wait = min(he.RetryAfter, maxRetryAfter)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		if he.QuotaSpent {
			return false
		}
		switch he.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
