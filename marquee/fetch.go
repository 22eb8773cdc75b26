package marquee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/lmittmann/tint"
)

var (
	// ErrNotFound indicates the upstream API returned 404 for the
	// requested resource.
	ErrNotFound = errors.New("resource not found")
)

// StatusError is returned for non-2xx, non-404 upstream responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d from %s",
		e.StatusCode,
		e.URL,
	)
}

// DecodeError wraps a JSON decoding failure, to keep shape mismatches
// distinguishable from transport failures.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// apiClient is a thin GET/decode wrapper over a shared HTTP client, used
// for every upstream content API call. It's immutable after construction
// and safe for concurrent use; each call is independent and stateless.
type apiClient struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger

	// requests counts outbound requests, for metrics and test
	// instrumentation
	requests atomic.Int64
}

// newAPIClient wraps the given HTTP client. If client is nil, a default
// client with redirects disabled and the configured timeout is created.
func newAPIClient(cfg *HTTPConfig, client *http.Client, handler slog.Handler) *apiClient {
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &apiClient{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		logger: slog.New(handler).With(
			loggerNameKey,
			"api_client",
		),
	}
}

// RequestCount returns the number of outbound requests made so far.
func (c *apiClient) RequestCount() int64 {
	return c.requests.Load()
}

// getJSON issues a GET request to rawURL with the given query parameters,
// and decodes a 200 response body into out. A 404 returns ErrNotFound;
// other non-2xx statuses return a *StatusError; an undecodable body
// returns a *DecodeError.
func (c *apiClient) getJSON(
	ctx context.Context,
	rawURL string,
	params url.Values,
	out any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.requests.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "request failed", tint.Err(err), "url", rawURL)
		return fmt.Errorf("error requesting %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.DebugContext(
		ctx,
		"upstream response",
		"url", rawURL,
		"status", resp.StatusCode,
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}
	return nil
}
