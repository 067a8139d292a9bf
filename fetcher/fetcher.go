package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/siteforge/harvest/antiblock"
	"github.com/siteforge/harvest/config"
	"github.com/siteforge/harvest/models"
)

// Outcome is the result of one completed retrieval.
type Outcome struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Blocked    bool
	FinalURL   string
}

// slowDomains are JavaScript-heavy showcase platforms that need the extended
// fetch deadline.
var slowDomains = []string{
	"awwwards.com",
	"cssdesignawards.com",
	"thefwa.com",
	"siteinspire.com",
	"land-book.com",
	"webflow.com",
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Fetcher performs resilient HTTP retrievals: a Chrome TLS fingerprint,
// rotating identities, politeness gating before every attempt, and
// retry/backoff driven by block classification. Safe for concurrent use.
type Fetcher struct {
	cfg    config.FetchConfig
	gate   *antiblock.Gate
	client *http.Client

	// sleep is an injection point for backoff tests; nil means real sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher whose TLS handshakes present a Chrome fingerprint.
func New(cfg config.FetchConfig, gate *antiblock.Gate) *Fetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetcher: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &Fetcher{
		cfg:  cfg,
		gate: gate,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// NewWithClient is used by tests to inject a plain transport.
func NewWithClient(cfg config.FetchConfig, gate *antiblock.Gate, client *http.Client) *Fetcher {
	return &Fetcher{cfg: cfg, gate: gate, client: client}
}

// Fetch retrieves the URL, retrying through transient and block-indicating
// responses with identity rotation. Malformed URLs fail immediately without
// consuming a retry.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Outcome, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput,
			"not a fetchable http(s) URL: "+rawURL, err)
	}
	origin := u.Scheme + "://" + u.Host

	policy := Policy{
		MaxAttempts: f.cfg.MaxRetries,
		Backoff:     defaultBackoff,
		sleep:       f.sleep,
	}

	return Do(ctx, policy, func(attempt int) (*Outcome, Class, error) {
		if err := f.gate.Wait(ctx, origin); err != nil {
			return nil, ClassFatal, models.NewHarvestError(models.ErrCodeTimeout,
				"politeness gate interrupted", err)
		}

		// A fresh identity every attempt; after a block this is the
		// mandated rotation, otherwise it just varies the signature.
		identity := antiblock.NextIdentity()
		outcome, class, err := f.attempt(ctx, rawURL, identity)
		if class != ClassOK && class != ClassFatal && attempt < f.cfg.MaxRetries {
			slog.Warn("fetch attempt failed, will retry",
				"url", rawURL, "attempt", attempt, "error", err)
		}
		return outcome, class, err
	})
}

// attempt performs a single gated GET and classifies its outcome.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, id antiblock.Identity) (*Outcome, Class, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.TimeoutFor(rawURL))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ClassFatal, models.NewHarvestError(models.ErrCodeInvalidInput,
			"build request", err)
	}
	for k, v := range antiblock.HeadersFor(id, "") {
		req.Header.Set(k, v)
	}
	// No compression so body fingerprint checks see plain text.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassNetwork, models.NewHarvestError(models.ErrCodeNetwork,
			"request failed for "+rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, ClassNetwork, models.NewHarvestError(models.ErrCodeNetwork,
			"read body for "+rawURL, err)
	}

	outcome := &Outcome{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}

	if isEdgeChallenge(resp.StatusCode, resp.Header) {
		outcome.Blocked = true
		return outcome, ClassChallenge, models.NewHarvestError(models.ErrCodeBlocked,
			fmt.Sprintf("edge challenge (HTTP %d) for %s", resp.StatusCode, rawURL), nil)
	}
	if IsBlockedResponse(resp.StatusCode, body) {
		outcome.Blocked = true
		return outcome, ClassBlocked, models.NewHarvestError(models.ErrCodeBlocked,
			fmt.Sprintf("blocked (HTTP %d) for %s", resp.StatusCode, rawURL), nil)
	}
	if resp.StatusCode >= 500 {
		return outcome, ClassNetwork, models.NewHarvestError(models.ErrCodeNetwork,
			fmt.Sprintf("server error (HTTP %d) for %s", resp.StatusCode, rawURL), nil)
	}
	return outcome, ClassOK, nil
}

// FetchAsset retrieves a sub-resource (stylesheet, script, image) through the
// same gate and retry machinery, with a per-asset byte cap and fewer attempts
// since a lost asset never fails its page.
func (f *Fetcher) FetchAsset(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput,
			"not a fetchable http(s) URL: "+rawURL, err)
	}
	origin := u.Scheme + "://" + u.Host

	policy := Policy{
		MaxAttempts: 2,
		Backoff:     defaultBackoff,
		sleep:       f.sleep,
	}

	return Do(ctx, policy, func(attempt int) ([]byte, Class, error) {
		if err := f.gate.Wait(ctx, origin); err != nil {
			return nil, ClassFatal, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, f.TimeoutFor(rawURL))
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, ClassFatal, err
		}
		for k, v := range antiblock.HeadersFor(antiblock.NextIdentity(), "") {
			req.Header.Set(k, v)
		}
		req.Header.Set("Accept-Encoding", "identity")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, ClassNetwork, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
			return nil, ClassBlocked, fmt.Errorf("asset blocked (HTTP %d): %s", resp.StatusCode, rawURL)
		}
		if resp.StatusCode >= 400 {
			return nil, ClassFatal, fmt.Errorf("asset HTTP %d: %s", resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if err != nil {
			return nil, ClassNetwork, err
		}
		return body, ClassOK, nil
	})
}

// TimeoutFor returns the per-fetch deadline, extended for known-slow
// showcase domains.
func (f *Fetcher) TimeoutFor(rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil {
		return f.cfg.Timeout
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range slowDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return f.cfg.SlowTimeout
		}
	}
	return f.cfg.Timeout
}
