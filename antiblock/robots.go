package antiblock

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// policyEntry caches one origin's robots decision.
type policyEntry struct {
	allowed   bool
	fetchedAt time.Time
}

// PolicyChecker answers whether an origin's robots.txt permits crawling at
// all. Decisions are cached per origin. It is safe for concurrent use.
type PolicyChecker struct {
	client *http.Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]policyEntry
}

// NewPolicyChecker creates a checker with a dedicated short-timeout client.
func NewPolicyChecker() *PolicyChecker {
	return &PolicyChecker{
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    1 * time.Hour,
		cache:  make(map[string]policyEntry),
	}
}

// NewPolicyCheckerWithClient is used by tests to inject a transport.
func NewPolicyCheckerWithClient(client *http.Client) *PolicyChecker {
	return &PolicyChecker{
		client: client,
		ttl:    1 * time.Hour,
		cache:  make(map[string]policyEntry),
	}
}

// CheckPolicy fetches {origin}/robots.txt (one retry) and reports whether
// crawling is permitted. If the document is unreachable it fails open:
// returns true and logs a warning. Only a wildcard user-agent group with a
// blanket disallow-all rule yields false; any other content is permissive.
func (p *PolicyChecker) CheckPolicy(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	origin := u.Scheme + "://" + u.Host

	p.mu.Lock()
	if e, ok := p.cache[origin]; ok && time.Since(e.fetchedAt) < p.ttl {
		p.mu.Unlock()
		return e.allowed
	}
	p.mu.Unlock()

	allowed := p.fetchAndEvaluate(ctx, origin)

	p.mu.Lock()
	p.cache[origin] = policyEntry{allowed: allowed, fetchedAt: time.Now()}
	p.mu.Unlock()
	return allowed
}

func (p *PolicyChecker) fetchAndEvaluate(ctx context.Context, origin string) bool {
	robotsURL := origin + "/robots.txt"

	var body []byte
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		body, lastErr = p.fetchOnce(ctx, robotsURL)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		// Fail open: an unreachable robots.txt never blocks a harvest.
		slog.Warn("robots.txt unreachable, failing open",
			"origin", origin, "error", lastErr)
		return true
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		slog.Warn("robots.txt unparsable, failing open",
			"origin", origin, "error", err)
		return true
	}

	group := data.FindGroup("*")
	if group != nil && !group.Test("/") {
		slog.Info("robots.txt blanket disallow, skipping site", "origin", origin)
		return false
	}
	return true
}

func (p *PolicyChecker) fetchOnce(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 4xx/5xx robots responses are treated as permissive per convention;
	// return an empty document rather than an error so no retry is burned.
	if resp.StatusCode >= 400 {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}
