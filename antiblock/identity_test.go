package antiblock

import (
	"strings"
	"testing"
)

func TestIdentityPool_InternallyConsistent(t *testing.T) {
	for _, id := range identityPool {
		if id.UserAgent == "" {
			t.Fatal("identity with empty user agent")
		}
		if id.Mobile && !strings.Contains(id.UserAgent, "Mobile") {
			t.Errorf("mobile identity without Mobile UA marker: %s", id.UserAgent)
		}
		if id.Family == FamilyFirefox && !strings.Contains(id.UserAgent, "Firefox") {
			t.Errorf("firefox identity without Firefox UA marker: %s", id.UserAgent)
		}
	}
}

func TestNextIdentity_DrawsFromPool(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NextIdentity()
		seen[id.UserAgent] = true

		found := false
		for _, p := range identityPool {
			if p.UserAgent == id.UserAgent {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("identity not from pool: %s", id.UserAgent)
		}
	}
	// 200 draws from a 9-entry pool should hit more than one entry.
	if len(seen) < 2 {
		t.Errorf("rotation appears stuck: only %d distinct identities in 200 draws", len(seen))
	}
}

func TestHeadersFor_ClientHintsOnlyForChromium(t *testing.T) {
	tests := []struct {
		name      string
		id        Identity
		wantHints bool
	}{
		{"chromium desktop", Identity{UserAgent: "ua", Family: FamilyChromium, Platform: "Windows"}, true},
		{"chromium mobile", Identity{UserAgent: "ua", Family: FamilyChromium, Platform: "Android", Mobile: true}, true},
		{"firefox", Identity{UserAgent: "ua", Family: FamilyFirefox, Platform: "Windows"}, false},
		{"safari", Identity{UserAgent: "ua", Family: FamilySafari, Platform: "macOS"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HeadersFor(tt.id, "")
			_, hasUA := h["sec-ch-ua"]
			_, hasPlatform := h["sec-ch-ua-platform"]
			_, hasMobile := h["sec-ch-ua-mobile"]

			if hasUA != tt.wantHints || hasPlatform != tt.wantHints || hasMobile != tt.wantHints {
				t.Errorf("client hints presence = (%v, %v, %v), want all %v", hasUA, hasPlatform, hasMobile, tt.wantHints)
			}
			if tt.wantHints {
				wantMobile := "?0"
				if tt.id.Mobile {
					wantMobile = "?1"
				}
				if h["sec-ch-ua-mobile"] != wantMobile {
					t.Errorf("sec-ch-ua-mobile = %q, want %q", h["sec-ch-ua-mobile"], wantMobile)
				}
				if h["sec-ch-ua-platform"] != `"`+tt.id.Platform+`"` {
					t.Errorf("sec-ch-ua-platform = %q, want quoted %q", h["sec-ch-ua-platform"], tt.id.Platform)
				}
			}
		})
	}
}

func TestHeadersFor_BaseHeadersAlwaysPresent(t *testing.T) {
	h := HeadersFor(identityPool[0], "https://example.com/prev")

	for _, key := range []string{"User-Agent", "Accept", "Accept-Language", "Accept-Encoding", "Connection"} {
		if h[key] == "" {
			t.Errorf("missing base header %s", key)
		}
	}
	if h["Referer"] != "https://example.com/prev" {
		t.Errorf("supplied referer not used: %q", h["Referer"])
	}
}

func TestSearchReferer(t *testing.T) {
	ref := SearchReferer("https://smithassociates.com/about")
	if !strings.Contains(ref, "smithassociates.com") {
		t.Errorf("referer does not mention target host: %s", ref)
	}
	if !strings.HasPrefix(ref, "https://www.google.com/search?q=") {
		t.Errorf("unexpected referer shape: %s", ref)
	}
}
