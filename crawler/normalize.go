package crawler

import (
	"net/url"
	"strings"
)

// skipExtensions are non-page resources a frontier must never carry:
// documents, archives, media, and raw stylesheet/script files.
var skipExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".rar", ".tar", ".gz", ".7z",
	".mp3", ".mp4", ".avi", ".mov", ".wmv", ".webm",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
	".css", ".js", ".json", ".xml", ".rss", ".atom",
}

// skipSchemes are link schemes that never lead to a crawlable page.
var skipSchemes = []string{"mailto:", "tel:", "javascript:", "data:", "ftp:"}

// NormalizeURL produces the canonical dedup key for a URL: fragment stripped
// and trailing slash removed, query preserved.
func NormalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.Path = strings.TrimRight(c.Path, "/")
	c.Host = strings.ToLower(c.Host)
	c.Scheme = strings.ToLower(c.Scheme)
	return c.String()
}

// SameOrigin reports whether two URLs share the seed's origin. The crawl
// never leaves the seed host.
func SameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

// SkippableLink reports whether a raw href can be rejected before URL
// resolution: non-page schemes and non-page file extensions.
func SkippableLink(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range skipSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	// Strip query/fragment before the extension check.
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
