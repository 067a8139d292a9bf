package antiblock

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/siteforge/harvest/config"
)

// rateWindow is the fixed accounting window for per-origin request caps.
const rateWindow = 60 * time.Second

// originState tracks politeness accounting for one origin. The embedded
// mutex is held for the full gating operation, including its sleeps, so
// concurrent callers against the same origin serialize and never under-count
// or race on the window reset. Callers to different origins never contend.
type originState struct {
	mu            sync.Mutex
	lastRequestAt time.Time
	windowStart   time.Time
	windowCount   int
	lastTouched   time.Time
}

// Gate enforces the per-origin politeness budget: a per-minute request cap
// plus a randomized inter-request delay. It is safe for concurrent use.
type Gate struct {
	cfg config.PolitenessConfig

	mu      sync.Mutex
	origins map[string]*originState

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate creates a politeness gate. A background goroutine evicts origin
// entries untouched for an hour, preventing unbounded memory growth across
// many single-site sessions.
func NewGate(cfg config.PolitenessConfig) *Gate {
	g := &Gate{
		cfg:     cfg,
		origins: make(map[string]*originState),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	go g.evictLoop()
	return g
}

// Wait suspends until the origin's politeness budget permits another request,
// then records the request. This is the subsystem's principal suspension
// point; it returns early only when ctx is canceled.
func (g *Gate) Wait(ctx context.Context, origin string) error {
	st := g.state(origin)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := g.now()
	st.lastTouched = now

	if st.windowStart.IsZero() || now.Sub(st.windowStart) >= rateWindow {
		st.windowStart = now
		st.windowCount = 0
	}

	if st.windowCount >= g.cfg.MaxRequestsPerMinute {
		wait := rateWindow - now.Sub(st.windowStart)
		if wait > 0 {
			slog.Debug("rate window saturated, waiting",
				"origin", origin, "wait", wait)
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
		}
		st.windowStart = g.now()
		st.windowCount = 0
	}

	if err := g.sleep(ctx, g.jitter()); err != nil {
		return err
	}

	st.lastRequestAt = g.now()
	st.windowCount++
	return nil
}

// jitter draws a uniform delay from [MinDelay, MaxDelay] to avoid a
// machine-regular request cadence.
func (g *Gate) jitter() time.Duration {
	span := g.cfg.MaxDelay - g.cfg.MinDelay
	if span <= 0 {
		return g.cfg.MinDelay
	}
	return g.cfg.MinDelay + rand.N(span)
}

// state returns the per-origin entry, creating it on first use.
func (g *Gate) state(origin string) *originState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.origins[origin]
	if !ok {
		st = &originState{}
		g.origins[origin] = st
	}
	return st
}

// evictLoop drops origin entries untouched for an hour, every 5 minutes.
func (g *Gate) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := g.now().Add(-1 * time.Hour)
		g.mu.Lock()
		for origin, st := range g.origins {
			if st.mu.TryLock() {
				stale := st.lastTouched.Before(cutoff)
				st.mu.Unlock()
				if stale {
					delete(g.origins, origin)
				}
			}
		}
		g.mu.Unlock()
	}
}

// sleepCtx sleeps for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
