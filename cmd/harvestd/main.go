package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siteforge/harvest/antiblock"
	"github.com/siteforge/harvest/api"
	"github.com/siteforge/harvest/config"
	"github.com/siteforge/harvest/extractor"
	"github.com/siteforge/harvest/fetcher"
	"github.com/siteforge/harvest/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvestd starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Launch browser (page pool) ───────────────────────────────
	browser, err := extractor.NewBrowser(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer browser.Close()

	// ── 4. Wire the harvest pipeline ────────────────────────────────
	// One politeness gate and one policy checker serve the whole process,
	// so concurrent jobs against the same origin still pace correctly.
	gate := antiblock.NewGate(cfg.Politeness)
	f := fetcher.New(cfg.Fetch, gate)
	ex := extractor.New(browser, f, cfg.Fetch)
	policy := antiblock.NewPolicyChecker()

	var st store.Store
	if cfg.Store.Path == "" {
		st = store.NewMemory()
		slog.Info("using in-memory page store")
	} else {
		st, err = store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to open page store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		slog.Info("page store opened", "path", cfg.Store.Path)
	}
	defer st.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(browser, ex, policy, st, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("harvestd stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
