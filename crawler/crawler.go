// Package crawler walks one website breadth-first within page and depth
// budgets, persisting each fully extracted page as it completes. Traversal
// is strictly sequential: politeness toward the single target origin is the
// constraint, not throughput. Independent sessions (different sites) may run
// concurrently and share the politeness gate.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/siteforge/harvest/antiblock"
	"github.com/siteforge/harvest/extractor"
	"github.com/siteforge/harvest/models"
	"github.com/siteforge/harvest/store"
)

// PageExtractor is implemented by extractor.Extractor; tests substitute a
// fake that serves fixture extractions without a browser.
type PageExtractor interface {
	RenderAndExtract(ctx context.Context, url string) (*extractor.Extraction, error)
}

// PolicyChecker is implemented by antiblock.PolicyChecker.
type PolicyChecker interface {
	CheckPolicy(ctx context.Context, url string) bool
}

// Options bounds one crawl session.
type Options struct {
	StartURL   string
	TemplateID string

	MaxPages     int
	MaxDepth     int
	PageTimeout  time.Duration
	PageDelay    time.Duration
	LinksPerPage int

	// OnPage, when set, receives each persisted record as it completes.
	OnPage func(*models.PageRecord)
}

// frontierItem is one URL awaiting extraction at a known depth.
type frontierItem struct {
	url   string
	depth int
}

// Session is the state of one site crawl. It lives for the duration of the
// crawl and is discarded after completion. Not safe for concurrent use; run
// independent sessions for independent sites.
type Session struct {
	opts      Options
	extractor PageExtractor
	policy    PolicyChecker
	store     store.Store

	visited      map[string]struct{}
	queued       map[string]struct{}
	frontier     []frontierItem
	pagesScraped int
	errs         []string
	fingerprints []uint64

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a session. The options' StartURL must be absolute http(s).
func New(opts Options, ex PageExtractor, policy PolicyChecker, st store.Store) (*Session, error) {
	u, err := url.Parse(opts.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput,
			"start URL must be absolute http(s): "+opts.StartURL, err)
	}
	return &Session{
		opts:      opts,
		extractor: ex,
		policy:    policy,
		store:     st,
		visited:   make(map[string]struct{}),
		queued:    make(map[string]struct{}),
		sleep:     sleepCtx,
	}, nil
}

// Run executes the crawl to its terminal state. It never returns an
// unhandled fault: every per-page failure is recovered locally and recorded
// in the summary's error list. The only pre-start failure is a robots.txt
// blanket disallow for the seed, which skips the whole site.
func (s *Session) Run(ctx context.Context) (*models.HarvestSummary, error) {
	seed, err := url.Parse(s.opts.StartURL)
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput, "parse start URL", err)
	}

	// Policy check: once per session, not per page.
	if !s.policy.CheckPolicy(ctx, s.opts.StartURL) {
		return nil, models.NewHarvestError(models.ErrCodePolicyDisallowed,
			"robots.txt disallows crawling "+seed.Host, nil)
	}

	s.frontier = []frontierItem{{url: s.opts.StartURL, depth: 0}}
	s.queued[s.opts.StartURL] = struct{}{}

	for len(s.frontier) > 0 && s.pagesScraped < s.opts.MaxPages {
		if ctx.Err() != nil {
			s.recordError(s.opts.StartURL, "crawl canceled: "+ctx.Err().Error())
			break
		}

		item := s.frontier[0]
		s.frontier = s.frontier[1:]

		u, err := url.Parse(item.url)
		if err != nil {
			continue
		}
		normalized := NormalizeURL(u)
		if _, seen := s.visited[normalized]; seen {
			continue
		}
		if item.depth > s.opts.MaxDepth {
			continue
		}
		if !SameOrigin(u, seed) {
			continue
		}
		if SkippableLink(item.url) {
			continue
		}
		s.visited[normalized] = struct{}{}

		s.visitPage(ctx, seed, item)

		// Extra spacing between page visits: one session issues many
		// requests to the same origin in a short span, on top of what the
		// politeness gate already enforces per request.
		if len(s.frontier) > 0 && s.pagesScraped < s.opts.MaxPages {
			if err := s.sleep(ctx, s.opts.PageDelay); err != nil {
				break
			}
		}
	}

	summary := &models.HarvestSummary{
		PagesScraped: s.pagesScraped,
		Errors:       s.errs,
	}
	slog.Info("crawl session finished",
		"start", s.opts.StartURL,
		"pages", summary.PagesScraped,
		"errors", len(summary.Errors),
	)
	return summary, nil
}

// visitPage extracts, persists, and expands one frontier entry. Crawl-wide
// liveness takes priority over completeness of any single page: a page that
// exceeds the hard per-page budget is abandoned, not retried.
func (s *Session) visitPage(ctx context.Context, seed *url.URL, item frontierItem) {
	pageCtx, cancel := context.WithTimeout(ctx, s.opts.PageTimeout)
	defer cancel()

	ex, err := s.extractor.RenderAndExtract(pageCtx, item.url)
	if err != nil {
		s.recordError(item.url, err.Error())
		return
	}

	// Near-duplicate content at a different URL is skipped, but its links
	// still feed the frontier.
	fp := textFingerprint(ex.TextContent)
	if isNearDuplicate(fp, s.fingerprints) {
		slog.Debug("near-duplicate page skipped", "url", item.url)
		s.discoverLinks(seed, item, ex.HTML)
		return
	}

	record := buildRecord(item, ex, s.pagesScraped)
	if err := s.store.SavePage(ctx, s.opts.TemplateID, record); err != nil {
		// Persistence failures never stop the crawl and never roll back
		// already-persisted pages.
		s.recordError(item.url, models.NewHarvestError(
			models.ErrCodePersistence, "persist page", err).Error())
		s.discoverLinks(seed, item, ex.HTML)
		return
	}

	s.fingerprints = append(s.fingerprints, fp)
	s.pagesScraped++
	if s.opts.OnPage != nil {
		s.opts.OnPage(record)
	}
	slog.Info("page harvested",
		"url", item.url, "depth", item.depth, "order", record.Order)

	s.discoverLinks(seed, item, ex.HTML)
}

// discoverLinks parses the rendered HTML for anchors, restricts them to the
// seed origin, normalizes, and enqueues bounded batches at depth+1.
func (s *Session) discoverLinks(seed *url.URL, item frontierItem, rawHTML string) {
	if rawHTML == "" || item.depth >= s.opts.MaxDepth {
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return
	}

	base, err := url.Parse(item.url)
	if err != nil {
		return
	}

	added := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if added >= s.opts.LinksPerPage {
			return false
		}
		if len(s.frontier) >= 2*s.opts.MaxPages {
			return false
		}

		href, _ := sel.Attr("href")
		if href == "" || SkippableLink(href) {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		if !SameOrigin(abs, seed) {
			return true
		}

		normalized := NormalizeURL(abs)
		if _, seen := s.visited[normalized]; seen {
			return true
		}
		if _, inQueue := s.queued[normalized]; inQueue {
			return true
		}

		s.queued[normalized] = struct{}{}
		s.frontier = append(s.frontier, frontierItem{url: abs.String(), depth: item.depth + 1})
		added++
		return true
	})
}

// buildRecord assembles the persisted record from an extraction. The home
// page is the empty or root path and always carries order 0.
func buildRecord(item frontierItem, ex *extractor.Extraction, order int) *models.PageRecord {
	path := "/"
	if u, err := url.Parse(item.url); err == nil {
		if p := strings.TrimRight(u.Path, "/"); p != "" {
			path = p
		}
	}

	return &models.PageRecord{
		URL:             item.url,
		Path:            path,
		Depth:           item.depth,
		IsHomePage:      path == "/",
		Order:           order,
		HTMLContent:     ex.HTML,
		CSSContent:      ex.CSS,
		JSContent:       ex.JS,
		Images:          ex.Images,
		Text:            ex.Text,
		Tokens:          ex.Tokens,
		Metadata:        ex.Metadata,
		TextContent:     ex.TextContent,
		ContentMarkdown: ex.ContentMarkdown,
		ResolvedURL:     ex.ResolvedURL,
	}
}

func (s *Session) recordError(url, msg string) {
	s.errs = append(s.errs, fmt.Sprintf("%s: %s", url, msg))
	slog.Warn("page failed", "url", url, "error", msg)
}

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

var _ PolicyChecker = (*antiblock.PolicyChecker)(nil)
