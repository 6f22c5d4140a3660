// Package fetcher provides the HTTP fetch capability shared by all
// analyzers: GET with per-call timeout, redirect policy, and user-agent.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nsyc/page-analyzer/models"
)

// ErrTimeout reports that a fetch exceeded its configured timeout.
var ErrTimeout = errors.New("request timeout")

// ErrContentTooLarge reports a response body over the configured limit.
// Oversized content is a fetch failure, never a partial read.
var ErrContentTooLarge = errors.New("content exceeds max_content_length")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Response is the outcome of a successful fetch.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Elapsed    time.Duration
	FinalURL   string
}

// Fetcher is a long-lived fetch handle. The connection pool is the shared
// resource; per-call behavior (timeout, redirects, user-agent) comes from the
// request-scoped config so overlapping calls never interfere.
type Fetcher struct {
	transport *http.Transport
}

// New opens a fetch handle with its own connection pool.
func New() *Fetcher {
	return &Fetcher{
		transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Get fetches a URL using the given request-scoped config. It returns
// ErrTimeout on deadline expiry, a *StatusError for non-2xx responses, and
// ErrContentTooLarge when the body exceeds cfg.MaxContentLength.
func (f *Fetcher) Get(ctx context.Context, rawURL string, cfg models.AnalysisConfig) (*Response, error) {
	client := &http.Client{
		Transport:     f.transport,
		CheckRedirect: redirectPolicy(cfg),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	if resp.ContentLength > int64(cfg.MaxContentLength) {
		return nil, ErrContentTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(cfg.MaxContentLength)+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > cfg.MaxContentLength {
		return nil, ErrContentTooLarge
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Elapsed:    time.Since(start),
		FinalURL:   finalURL,
	}, nil
}

// Close releases the handle's pooled connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

func redirectPolicy(cfg models.AnalysisConfig) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !cfg.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
		}
		return nil
	}
}

// IsTimeout reports whether an error from Get was a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
