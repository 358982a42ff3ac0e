package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// RobotsChecker checks robots.txt compliance, caching one policy per host
type RobotsChecker struct {
	mu         sync.RWMutex
	policies   map[string]*robotstxt.RobotsData
	httpClient *http.Client
	agent      string
	logger     zerolog.Logger
}

// NewRobotsChecker creates a checker. userAgent may be a full UA string;
// only its product token is matched against robots groups.
func NewRobotsChecker(client *http.Client, userAgent string, logger zerolog.Logger) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		policies:   make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		agent:      NormalizeUserAgent(userAgent),
		logger:     logger,
	}
}

// CanFetch reports whether rawURL may be fetched and the host's crawl delay.
// An unreachable or unparsable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return false, 0, fmt.Errorf("parse URL: %q is not absolute", rawURL)
	}

	data, err := r.policy(ctx, parsed)
	if err != nil {
		r.logger.Warn().Err(err).Str("host", parsed.Host).Msg("robots.txt unavailable, allowing")
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	var delay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(path, r.agent), delay, nil
}

// Check returns ErrDisallowed when rawURL may not be fetched
func (r *RobotsChecker) Check(ctx context.Context, rawURL string) error {
	allowed, _, err := r.CanFetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	return nil
}

func (r *RobotsChecker) policy(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := target.Scheme + "://" + target.Host

	r.mu.RLock()
	data, ok := r.policies[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.policies[host] = data
	r.mu.Unlock()

	return data, nil
}

// Clear drops cached policies
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = make(map[string]*robotstxt.RobotsData)
}

// NormalizeUserAgent reduces "needscore/0.1 (+url)" to "needscore"
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
