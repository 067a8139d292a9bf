package fetcher

import (
	"net/http"
	"strings"
)

// challengeFingerprints are body substrings of known challenge pages. A match
// marks the response blocked even when the status is 200.
var challengeFingerprints = []string{
	"checking your browser",
	"just a moment",
	"attention required! | cloudflare",
	"cf-browser-verification",
	"cf-chl-widget",
	"verify you are human",
	"verifying you are human",
	"enable javascript and cookies to continue",
	"ddos protection by",
	"g-recaptcha",
	"h-captcha",
	"challenge-platform",
	"are you a robot",
}

// IsBlockedResponse reports whether the outcome indicates the target server
// detected and rejected automated access. Status 403 and 429 always count;
// otherwise the body (when available) is scanned for challenge fingerprints.
func IsBlockedResponse(statusCode int, body []byte) bool {
	if statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests {
		return true
	}
	if len(body) == 0 {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, fp := range challengeFingerprints {
		if strings.Contains(lower, fp) {
			return true
		}
	}
	return false
}

// isEdgeChallenge reports a Cloudflare-style block: a 503 or 403 whose
// server header carries a CDN-edge signature. These get a longer backoff
// base because the edge cool-down outlasts an origin rate limit.
func isEdgeChallenge(statusCode int, headers http.Header) bool {
	if statusCode != http.StatusServiceUnavailable && statusCode != http.StatusForbidden {
		return false
	}
	server := strings.ToLower(headers.Get("Server"))
	return strings.Contains(server, "cloudflare") || strings.Contains(server, "ddos-guard")
}
