package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/siteforge/harvest/models"
)

// analyticsDomains are tag-manager and analytics hosts whose script bodies
// carry no layout or content signal. External scripts from these hosts are
// skipped entirely.
var analyticsDomains = map[string]struct{}{
	"google-analytics.com":   {},
	"googletagmanager.com":   {},
	"googletagservices.com":  {},
	"googlesyndication.com":  {},
	"googleadservices.com":   {},
	"doubleclick.net":        {},
	"connect.facebook.net":   {},
	"facebook.net":           {},
	"hotjar.com":             {},
	"mixpanel.com":           {},
	"segment.io":             {},
	"segment.com":            {},
	"clarity.ms":             {},
	"chartbeat.com":          {},
	"optimizely.com":         {},
	"scorecardresearch.com":  {},
	"quantserve.com":         {},
	"ads-twitter.com":        {},
	"static.ads-twitter.com": {},
	"taboola.com":            {},
	"outbrain.com":           {},
	"criteo.com":             {},
	"amazon-adsystem.com":    {},
}

// isAnalyticsDomain checks a hostname and its parent domains against the
// deny-list.
func isAnalyticsDomain(host string) bool {
	host = strings.ToLower(host)
	if _, ok := analyticsDomains[host]; ok {
		return true
	}
	for {
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
		if _, ok := analyticsDomains[host]; ok {
			return true
		}
	}
}

// extractCSS concatenates all inline style blocks with the text of every
// externally linked stylesheet. External sheets are fetched directly rather
// than through the browser so renderer-side CORS restrictions never hide
// them; an unreachable sheet is skipped with a warning, never a failure.
func (e *Extractor) extractCSS(ctx context.Context, doc *goquery.Document, base *url.URL) string {
	var sb strings.Builder

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if css := strings.TrimSpace(s.Text()); css != "" {
			sb.WriteString(css)
			sb.WriteString("\n\n")
		}
	})

	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		abs := resolveRef(base, href)
		if abs == "" {
			return
		}
		body, err := e.fetcher.FetchAsset(ctx, abs, e.cfg.MaxBodyBytes)
		if err != nil {
			slog.Warn("stylesheet unreachable, skipped", "href", abs, "error", err)
			return
		}
		sb.WriteString("/* " + abs + " */\n")
		sb.Write(body)
		sb.WriteString("\n\n")
	})

	return sb.String()
}

// extractScripts concatenates inline script bodies with externally linked
// script bodies, excluding the analytics deny-list. External fetches go
// through the resilient fetcher.
func (e *Extractor) extractScripts(ctx context.Context, doc *goquery.Document, base *url.URL) string {
	var sb strings.Builder

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, hasSrc := s.Attr("src")
		if !hasSrc {
			if js := strings.TrimSpace(s.Text()); js != "" {
				sb.WriteString(js)
				sb.WriteString("\n\n")
			}
			return
		}

		abs := resolveRef(base, src)
		if abs == "" {
			return
		}
		if u, err := url.Parse(abs); err == nil && isAnalyticsDomain(u.Hostname()) {
			return
		}
		body, err := e.fetcher.FetchAsset(ctx, abs, e.cfg.MaxBodyBytes)
		if err != nil {
			slog.Warn("script unreachable, skipped", "src", abs, "error", err)
			return
		}
		sb.WriteString("/* " + abs + " */\n")
		sb.Write(body)
		sb.WriteString("\n\n")
	})

	return sb.String()
}

// cssURLPattern matches url(...) references inside background-image
// declarations, both inline and in style blocks.
var cssURLPattern = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;{}]*url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// extractImages discovers images through three surfaces: <img> elements, CSS
// background-image declarations, and inline SVGs. Each is tagged with its
// surface and surrounding context; downloads are capped per image and a
// failed download is recorded on the image, never fatal to the page.
func (e *Extractor) extractImages(ctx context.Context, doc *goquery.Document, base *url.URL) []models.PageImage {
	var images []models.PageImage
	seen := make(map[string]struct{})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		abs := resolveRef(base, src)
		if abs == "" {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		alt, _ := s.Attr("alt")
		images = append(images, models.PageImage{
			Src:     abs,
			Alt:     alt,
			Surface: "img",
			Context: elementContext(s),
		})
	})

	// background-image URLs from inline style attributes and style blocks.
	var cssSources strings.Builder
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		cssSources.WriteString(style)
		cssSources.WriteString("\n")
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		cssSources.WriteString(s.Text())
		cssSources.WriteString("\n")
	})
	for _, match := range cssURLPattern.FindAllStringSubmatch(cssSources.String(), -1) {
		ref := match[1]
		if strings.HasPrefix(ref, "data:") {
			continue
		}
		abs := resolveRef(base, ref)
		if abs == "" {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		images = append(images, models.PageImage{
			Src:     abs,
			Surface: "css-background",
		})
	}

	doc.Find("svg").Each(func(i int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil || strings.TrimSpace(markup) == "" {
			return
		}
		images = append(images, models.PageImage{
			Surface: "inline-svg",
			Context: elementContext(s),
			Data:    []byte(markup),
			Size:    len(markup),
		})
	})

	// Download phase: best-effort, per-image byte cap, failures recorded.
	for i := range images {
		if images[i].Surface == "inline-svg" || images[i].Src == "" {
			continue
		}
		data, err := e.fetcher.FetchAsset(ctx, images[i].Src, e.cfg.MaxImageBytes)
		if err != nil {
			images[i].Failed = true
			images[i].Error = err.Error()
			continue
		}
		images[i].Data = data
		images[i].Size = len(data)
	}

	return images
}

// elementContext labels where in the document an element sits, so downstream
// template logic can distinguish hero imagery from footer clutter.
func elementContext(s *goquery.Selection) string {
	for _, landmark := range []string{"header", "nav", "footer", "main", "aside", "section", "article", "figure"} {
		if s.Closest(landmark).Length() > 0 {
			return landmark
		}
	}
	return ""
}

// resolveRef resolves a possibly relative reference against the page URL,
// returning "" for unusable schemes.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
