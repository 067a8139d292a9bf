// Package extractor drives full browser renderings of single URLs and turns
// them into normalized page extractions: HTML, CSS, scripts, images,
// structured text, design tokens, and metadata. Every sub-extraction is
// independently best-effort; only navigation itself can fail a page.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/siteforge/harvest/antiblock"
	"github.com/siteforge/harvest/config"
	"github.com/siteforge/harvest/fetcher"
	"github.com/siteforge/harvest/models"
)

// settleDelay is the fixed wait after DOM stability for deferred rendering
// (lazy images, font swaps, late hydration).
const settleDelay = 1500 * time.Millisecond

// Extraction is the normalized output of one rendered page.
type Extraction struct {
	HTML            string
	CSS             string
	JS              string
	Images          []models.PageImage
	Text            models.StructuredText
	Tokens          models.DesignTokens
	Metadata        models.PageMetadata
	TextContent     string
	ContentMarkdown string

	// ResolvedURL is the actual business site linked from an award-showcase
	// page, when the target is hosted on a known curator platform.
	ResolvedURL string
}

// Extractor renders pages through a shared Browser and fetches external
// assets through the resilient Fetcher. Safe for concurrent use.
type Extractor struct {
	browser *Browser
	fetcher *fetcher.Fetcher
	cfg     config.FetchConfig
}

// New creates an Extractor.
func New(browser *Browser, f *fetcher.Fetcher, cfg config.FetchConfig) *Extractor {
	return &Extractor{browser: browser, fetcher: f, cfg: cfg}
}

// RenderAndExtract navigates an isolated browser page to the URL, waits for
// render quiescence, and runs all extraction sub-steps. A failure in any
// sub-step is logged and skipped; only navigation failures return an error.
// The page is always returned to the pool on both paths.
func (e *Extractor) RenderAndExtract(ctx context.Context, rawURL string) (*Extraction, error) {
	rendered, tokens, err := e.render(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	ex := &Extraction{HTML: rendered, Tokens: tokens}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		// The serialized DOM should always parse; if not, the raw HTML is
		// still worth keeping.
		slog.Warn("rendered HTML unparsable, sub-extractions skipped",
			"url", rawURL, "error", err)
		return ex, nil
	}

	base, _ := url.Parse(rawURL)

	ex.CSS = e.extractCSS(ctx, doc, base)
	ex.JS = e.extractScripts(ctx, doc, base)
	ex.Images = e.extractImages(ctx, doc, base)
	ex.Text = extractStructuredText(doc)
	ex.Metadata = extractMetadata(doc)
	ex.TextContent, ex.ContentMarkdown = extractContent(rendered, rawURL)

	if rule := showcaseRuleFor(rawURL); rule != nil {
		ex.ResolvedURL = resolveShowcaseTarget(doc, base, rule)
	}

	return ex, nil
}

// render drives the browser: acquire page, stealth, navigate, wait, settle,
// then serialize the DOM and read design tokens off the live page.
//
// Ordering constraints inherited from CDP semantics: stealth JS and extra
// headers only take effect for navigations installed before Navigate, and
// the cleanup defer uses the original page reference (without the request
// context) so about:blank succeeds even after the context expires.
func (e *Extractor) render(ctx context.Context, rawURL string) (string, models.DesignTokens, error) {
	var tokens models.DesignTokens

	e.browser.activePages.Add(1)
	defer e.browser.activePages.Add(-1)

	page, acquireErr := e.browser.pagePool.Get(func() (*rod.Page, error) {
		return e.browser.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return "", tokens, models.NewHarvestError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		e.browser.pagePool.Put(page)
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr)
	}

	identity := antiblock.NextIdentity()
	headers := antiblock.HeadersFor(identity, antiblock.SearchReferer(rawURL))
	delete(headers, "User-Agent") // the browser supplies its own
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(headers),
	}.Call(page)

	p := page.Context(ctx)

	if navErr := p.Navigate(rawURL); navErr != nil {
		return "", tokens, categorizeNavError(navErr, "navigation to "+rawURL+" failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", rawURL, "error", stableErr)
	}

	// Fixed settle period for deferred rendering.
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return "", tokens, categorizeNavError(ctx.Err(), "settle wait interrupted")
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return "", tokens, categorizeNavError(htmlErr, "failed to serialize rendered DOM")
	}

	tokens = extractDesignTokens(p)
	return rawHTML, tokens, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeNavError wraps raw navigation errors into typed HarvestErrors.
func categorizeNavError(err error, msg string) *models.HarvestError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewHarvestError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewHarvestError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewHarvestError(models.ErrCodeExtraction, msg, err)
	}
}
