package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	Browser      BrowserConfig
	Harvest      HarvestConfig
	Politeness   PolitenessConfig
	Fetch        FetchConfig
	Store        StoreConfig
	Auth         AuthConfig
	APIRateLimit APIRateLimitConfig
	Log          LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// HarvestConfig bounds one crawl session.
type HarvestConfig struct {
	// MaxPages is the maximum number of pages harvested per session.
	MaxPages int // default: 100

	// MaxDepth is the maximum link distance from the seed URL.
	MaxDepth int // default: 5

	// PageTimeout is the hard per-page budget; a page that exceeds it is
	// abandoned and recorded as an error, never retried.
	PageTimeout time.Duration // default: 15s

	// PageDelay separates consecutive page visits within one session, on
	// top of the politeness gate, since a session hits one origin hard.
	PageDelay time.Duration // default: 500ms

	// LinksPerPage caps how many newly discovered links one page may enqueue.
	LinksPerPage int // default: 50
}

// PolitenessConfig controls the per-origin request gate.
type PolitenessConfig struct {
	// MinDelay and MaxDelay bound the randomized inter-request delay.
	MinDelay time.Duration // default: 2s
	MaxDelay time.Duration // default: 5s

	// MaxRequestsPerMinute caps requests per origin per 60-second window.
	MaxRequestsPerMinute int // default: 30
}

// FetchConfig controls the resilient HTTP fetcher.
type FetchConfig struct {
	// Timeout is the per-fetch deadline.
	Timeout time.Duration // default: 30s

	// SlowTimeout replaces Timeout for known JavaScript-heavy showcase domains.
	SlowTimeout time.Duration // default: 60s

	// MaxRetries bounds attempts for retryable (network/blocked) failures.
	MaxRetries int // default: 3

	// MaxBodyBytes caps a fetched document body.
	MaxBodyBytes int64 // default: 10 MB

	// MaxImageBytes caps a single downloaded image.
	MaxImageBytes int64 // default: 5 MB
}

// StoreConfig controls page persistence.
type StoreConfig struct {
	// Path is the SQLite database file. Empty selects the in-memory store.
	Path string // default: "harvest.db"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// APIRateLimitConfig controls per-key rate limiting on the HTTP API.
type APIRateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:   envIntOr("HARVEST_BROWSER_PAGES", 5),
			NoSandbox:  envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin: os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Harvest: HarvestConfig{
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 100),
			MaxDepth:     envIntOr("HARVEST_MAX_DEPTH", 5),
			PageTimeout:  envDurationOr("HARVEST_PAGE_TIMEOUT", 15*time.Second),
			PageDelay:    envDurationOr("HARVEST_PAGE_DELAY", 500*time.Millisecond),
			LinksPerPage: envIntOr("HARVEST_LINKS_PER_PAGE", 50),
		},
		Politeness: PolitenessConfig{
			MinDelay:             envDurationOr("HARVEST_MIN_DELAY", 2*time.Second),
			MaxDelay:             envDurationOr("HARVEST_MAX_DELAY", 5*time.Second),
			MaxRequestsPerMinute: envIntOr("HARVEST_MAX_RPM", 30),
		},
		Fetch: FetchConfig{
			Timeout:       envDurationOr("HARVEST_FETCH_TIMEOUT", 30*time.Second),
			SlowTimeout:   envDurationOr("HARVEST_FETCH_SLOW_TIMEOUT", 60*time.Second),
			MaxRetries:    envIntOr("HARVEST_FETCH_RETRIES", 3),
			MaxBodyBytes:  envInt64Or("HARVEST_MAX_BODY_BYTES", 10<<20),
			MaxImageBytes: envInt64Or("HARVEST_MAX_IMAGE_BYTES", 5<<20),
		},
		Store: StoreConfig{
			Path: envOr("HARVEST_DB_PATH", "harvest.db"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		APIRateLimit: APIRateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
