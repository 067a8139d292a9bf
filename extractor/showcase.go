package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ShowcaseRule maps one award-curator platform to the anchor selectors that
// point at the showcased business's own website. Adding a platform is one
// table row; the external-link fallback below applies to every platform.
type ShowcaseRule struct {
	DomainSuffix string
	Selectors    []cascadia.Selector
}

// showcaseRules covers the known curator platforms. Pages on these domains
// are galleries about a business site, not the business site itself.
var showcaseRules = []ShowcaseRule{
	{
		DomainSuffix: "awwwards.com",
		Selectors: []cascadia.Selector{
			cascadia.MustCompile(`a.button-visit`),
			cascadia.MustCompile(`a[href*="/sites/"] ~ a[target="_blank"]`),
		},
	},
	{
		DomainSuffix: "cssdesignawards.com",
		Selectors: []cascadia.Selector{
			cascadia.MustCompile(`a.visit-website`),
			cascadia.MustCompile(`.wotd-info a[target="_blank"]`),
		},
	},
	{
		DomainSuffix: "thefwa.com",
		Selectors: []cascadia.Selector{
			cascadia.MustCompile(`a[data-role="visit-site"]`),
		},
	},
	{
		DomainSuffix: "siteinspire.com",
		Selectors: []cascadia.Selector{
			cascadia.MustCompile(`a.visit`),
		},
	},
	{
		DomainSuffix: "land-book.com",
		Selectors: []cascadia.Selector{
			cascadia.MustCompile(`a.website-link`),
		},
	},
}

// socialHosts are excluded from the external-link fallback: a curator page's
// first external link is often the showcased studio's social profile, which
// is not its website.
var socialHosts = []string{
	"facebook.com", "instagram.com", "twitter.com", "x.com",
	"linkedin.com", "youtube.com", "pinterest.com", "dribbble.com",
	"behance.net", "vimeo.com", "tiktok.com",
}

// showcaseRuleFor returns the rule for the URL's platform, or nil when the
// page is not hosted on a known curator domain.
func showcaseRuleFor(rawURL string) *ShowcaseRule {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for i := range showcaseRules {
		d := showcaseRules[i].DomainSuffix
		if host == d || strings.HasSuffix(host, "."+d) {
			return &showcaseRules[i]
		}
	}
	return nil
}

// resolveShowcaseTarget finds the actual business website linked from a
// curator page: platform selectors first, then the first external
// non-social link. Returns "" when nothing resolves; the caller treats that
// as a page without an auxiliary target, not an error.
func resolveShowcaseTarget(doc *goquery.Document, base *url.URL, rule *ShowcaseRule) string {
	for _, sel := range rule.Selectors {
		if href := firstExternalHref(doc.FindMatcher(sel), base); href != "" {
			return href
		}
	}
	return firstExternalHref(doc.Find("a[href]"), base)
}

// firstExternalHref returns the first absolute, external, non-social href in
// the selection.
func firstExternalHref(sel *goquery.Selection, base *url.URL) string {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		abs := resolveRef(base, href)
		if abs == "" {
			return true
		}
		u, err := url.Parse(abs)
		if err != nil {
			return true
		}
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		if base != nil && strings.EqualFold(u.Hostname(), base.Hostname()) {
			return true
		}
		for _, social := range socialHosts {
			if host == social || strings.HasSuffix(host, "."+social) {
				return true
			}
		}
		found = abs
		return false
	})
	return found
}
