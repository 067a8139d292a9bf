// Package classifier distinguishes genuine business websites from
// directories, aggregators, listicles, and social/media platforms. All
// heuristics live in declarative rule tables (rules.go) evaluated uniformly.
package classifier

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/siteforge/harvest/models"
)

// IsRealBusinessSite reports whether the candidate looks like a company's own
// website rather than a directory entry, listicle, or platform page.
func IsRealBusinessSite(rawURL, title, snippet string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	if host == "" || !strings.Contains(host, ".") {
		return false
	}

	for _, blocked := range blockedDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return false
		}
	}

	lowerPath := strings.ToLower(u.Path)
	if u.RawQuery != "" {
		lowerPath += "?" + strings.ToLower(u.RawQuery)
	}
	for _, seg := range directoryPathSegments {
		if strings.Contains(lowerPath, seg) {
			return false
		}
	}

	for _, rule := range titleRules {
		if rule.pattern.MatchString(title) {
			slog.Debug("candidate rejected by title rule",
				"url", rawURL, "rule", rule.name)
			return false
		}
	}

	if snippet != "" {
		lower := strings.ToLower(snippet)
		for _, phrase := range snippetPhrases {
			if strings.Contains(lower, phrase) {
				return false
			}
		}
	}

	return true
}

// FilterCandidates applies IsRealBusinessSite and renumbers survivors
// sequentially starting at 1, preserving relative order. The original
// external ranking is intentionally discarded: position among filtered
// results is the meaningful signal for downstream consumers.
func FilterCandidates(candidates []models.CandidateSite) []models.CandidateSite {
	filtered := make([]models.CandidateSite, 0, len(candidates))
	for _, c := range candidates {
		if !IsRealBusinessSite(c.URL, c.Title, c.Snippet) {
			continue
		}
		c.Rank = len(filtered) + 1
		filtered = append(filtered, c)
	}
	return filtered
}
