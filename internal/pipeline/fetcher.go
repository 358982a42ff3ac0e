package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// fetchSleepFunc is swapped out in tests
var fetchSleepFunc = time.Sleep

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// HostLimiter throttles requests per host
type HostLimiter interface {
	Wait(ctx context.Context, host string) error
}

// StatusError is a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Retryable reports whether the request may succeed if repeated
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Fetcher performs bounded GET requests
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    HostLimiter
	logger     zerolog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithLimiter throttles every request through l
func WithLimiter(l HostLimiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithFetchLogger sets the logger
func WithFetchLogger(l zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher around client
func NewFetcher(client *http.Client, userAgent string, maxBytes int64, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	f := &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchResult is a successful response body
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch retrieves rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL, accept string) (*FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, parsed.Host); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transport errors, 429 and 5xx with linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL, accept string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL, accept)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == maxAttempts {
			break
		}

		f.logger.Debug().Err(err).Str("url", rawURL).Int("attempt", attempt).Msg("retrying fetch")
		fetchSleepFunc(time.Duration(attempt) * retryBackoff)
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
