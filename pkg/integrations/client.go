package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/httputil"
	"github.com/matzehuels/rewind/pkg/observability"
)

// Client provides shared HTTP functionality for registry API clients.
// It handles request pacing, retry logic, and common request headers.
//
// Client is safe for concurrent use; the throttle serialises requests so at
// most one leaves per interval regardless of how many goroutines call it.
type Client struct {
	http     *http.Client
	throttle *httputil.Throttle
	headers  map[string]string
}

// NewClient creates a Client that waits at least interval between requests
// and sends headers with every request. Pass nil for headers if no default
// headers are needed.
func NewClient(interval time.Duration, headers map[string]string) *Client {
	return &Client{
		http:     NewHTTPClient(),
		throttle: httputil.NewThrottle(interval),
		headers:  headers,
	}
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// Transient failures (network errors, 5xx, 429) are retried with backoff;
// every attempt goes through the throttle.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return nil
	})
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path

	waited, err := c.throttle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	hooks.OnThrottle(ctx, host, waited)

	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return &httputil.RetryableError{
			Err:   &errors.RateLimitedError{RetryAfter: retryAfter},
			After: time.Duration(retryAfter) * time.Second,
		}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// parseRetryAfter reads a Retry-After header, given either as delay seconds or
// as an HTTP date, into whole seconds from now. Missing, malformed and past
// values yield 0.
func parseRetryAfter(v string, now time.Time) int {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(secs, 0)
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	wait := at.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Second - 1) / time.Second)
}
