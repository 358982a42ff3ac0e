package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20)
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL, "text/html")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.ContentType != "text/html" {
		t.Errorf("Unexpected content type %q", result.ContentType)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, `{"data": {}}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20)
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL, "application/json")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(result.Body) != `{"data": {}}` {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20)
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL, "")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 StatusError, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 404 not to be retried, got %d attempts", attempts.Load())
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 10)
	result, err := fetcher.Fetch(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(result.Body) != 10 {
		t.Errorf("Expected body truncated to 10 bytes, got %d", len(result.Body))
	}
}

type countingLimiter struct {
	hosts []string
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context, host string) error {
	l.hosts = append(l.hosts, host)
	return l.err
}

func TestFetch_UsesLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	limiter := &countingLimiter{}
	fetcher := NewFetcher(server.Client(), "test-agent", 0, WithLimiter(limiter))
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/x", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(limiter.hosts) != 1 || !strings.HasPrefix(limiter.hosts[0], "127.0.0.1:") {
		t.Errorf("Expected limiter to be keyed by host, got %v", limiter.hosts)
	}

	limiter.err = context.Canceled
	if _, err := fetcher.Fetch(context.Background(), server.URL, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected limiter error, got %v", err)
	}
}
