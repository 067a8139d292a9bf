package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Harvest.MaxPages != 100 || cfg.Harvest.MaxDepth != 5 {
		t.Errorf("harvest budgets = %d/%d, want 100/5", cfg.Harvest.MaxPages, cfg.Harvest.MaxDepth)
	}
	if cfg.Harvest.PageTimeout != 15*time.Second {
		t.Errorf("page timeout = %v, want 15s", cfg.Harvest.PageTimeout)
	}
	if cfg.Harvest.PageDelay != 500*time.Millisecond {
		t.Errorf("page delay = %v, want 500ms", cfg.Harvest.PageDelay)
	}
	if cfg.Politeness.MinDelay != 2*time.Second || cfg.Politeness.MaxDelay != 5*time.Second {
		t.Errorf("politeness delays = %v/%v, want 2s/5s", cfg.Politeness.MinDelay, cfg.Politeness.MaxDelay)
	}
	if cfg.Politeness.MaxRequestsPerMinute != 30 {
		t.Errorf("requests per minute = %d, want 30", cfg.Politeness.MaxRequestsPerMinute)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Fetch.MaxRetries)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HARVEST_PORT", "9090")
	t.Setenv("HARVEST_MAX_PAGES", "25")
	t.Setenv("HARVEST_PAGE_TIMEOUT", "20s")
	t.Setenv("HARVEST_MIN_DELAY", "1s")
	t.Setenv("HARVEST_API_KEYS", "key-one, key-two")
	t.Setenv("HARVEST_AUTH_ENABLED", "false")
	t.Setenv("HARVEST_DB_PATH", "/tmp/other.db")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Harvest.MaxPages != 25 {
		t.Errorf("max pages = %d, want 25", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.PageTimeout != 20*time.Second {
		t.Errorf("page timeout = %v, want 20s", cfg.Harvest.PageTimeout)
	}
	if cfg.Politeness.MinDelay != time.Second {
		t.Errorf("min delay = %v, want 1s", cfg.Politeness.MinDelay)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[1] != "key-two" {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
	if cfg.Auth.Enabled {
		t.Error("auth enabled override ignored")
	}
	if cfg.Store.Path != "/tmp/other.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("HARVEST_PORT", "not-a-number")
	t.Setenv("HARVEST_PAGE_TIMEOUT", "soon")

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default on malformed input", cfg.Server.Port)
	}
	if cfg.Harvest.PageTimeout != 15*time.Second {
		t.Errorf("page timeout = %v, want default on malformed input", cfg.Harvest.PageTimeout)
	}
}
