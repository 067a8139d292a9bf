package antiblock

import (
	"math/rand/v2"
	"net/url"
)

// Browser families. Client-hint headers are only sent for the Chromium
// family; Firefox never sends them, and a mismatch is a bot tell.
const (
	FamilyChromium = "chromium"
	FamilyFirefox  = "firefox"
	FamilySafari   = "safari"
)

// Identity is an immutable client signature chosen per request. No identity
// carries state across requests.
type Identity struct {
	UserAgent string
	Family    string
	Platform  string // client-hint platform label, e.g. "Windows", "Android"
	Mobile    bool
}

// identityPool is a curated set spanning desktop/mobile, multiple browser
// families and OS platforms. Header sets derived from an identity stay
// internally consistent (a mobile platform pairs with a mobile UA string).
var identityPool = []Identity{
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Family:    FamilyChromium, Platform: "Windows",
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Family:    FamilyChromium, Platform: "macOS",
	},
	{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		Family:    FamilyChromium, Platform: "Linux",
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		Family:    FamilyFirefox, Platform: "Windows",
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
		Family:    FamilyFirefox, Platform: "macOS",
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
		Family:    FamilySafari, Platform: "macOS",
	},
	{
		UserAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Family:    FamilyChromium, Platform: "Android", Mobile: true,
	},
	{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		Family:    FamilySafari, Platform: "iOS", Mobile: true,
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
		Family:    FamilyChromium, Platform: "Windows",
	},
}

// searchReferers are generic organic-looking referers used when the caller
// supplies none.
var searchReferers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://duckduckgo.com/",
}

// NextIdentity selects uniformly at random from the pool.
func NextIdentity() Identity {
	return identityPool[rand.IntN(len(identityPool))]
}

// HeadersFor derives a header bundle consistent with the identity. If
// referer is empty, a generic search-engine referer is set with 50%
// probability so request streams do not look uniformly referer-less.
func HeadersFor(id Identity, referer string) map[string]string {
	h := map[string]string{
		"User-Agent":                id.UserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate, br",
		"Connection":                "keep-alive",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	}

	// Client hints exist only in the Chromium family.
	if id.Family == FamilyChromium {
		h["sec-ch-ua"] = `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`
		h["sec-ch-ua-platform"] = `"` + id.Platform + `"`
		if id.Mobile {
			h["sec-ch-ua-mobile"] = "?1"
		} else {
			h["sec-ch-ua-mobile"] = "?0"
		}
	}

	switch {
	case referer != "":
		h["Referer"] = referer
	case rand.IntN(2) == 0:
		h["Referer"] = searchReferers[rand.IntN(len(searchReferers))]
	}

	return h
}

// SearchReferer builds a plausible search-result referer for the target host.
func SearchReferer(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return searchReferers[0]
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
}
