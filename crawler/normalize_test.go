package crawler

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fragment stripped", "https://example.com/about#team", "https://example.com/about"},
		{"trailing slash trimmed", "https://example.com/about/", "https://example.com/about"},
		{"root collapses to bare origin", "https://example.com/", "https://example.com"},
		{"query preserved", "https://example.com/p?id=7", "https://example.com/p?id=7"},
		{"host lowered", "https://EXAMPLE.com/About", "https://example.com/About"},
		{"both fragment and slash", "https://example.com/services/#pricing", "https://example.com/services"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(mustParse(t, tt.in)); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_EquivalentFormsCollide(t *testing.T) {
	a := NormalizeURL(mustParse(t, "https://example.com/about"))
	b := NormalizeURL(mustParse(t, "https://example.com/about/"))
	c := NormalizeURL(mustParse(t, "https://example.com/about#history"))
	if a != b || b != c {
		t.Errorf("equivalent URLs map to distinct keys: %q, %q, %q", a, b, c)
	}
}

func TestSameOrigin(t *testing.T) {
	seed := mustParse(t, "https://example.com/")
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"same host", "https://example.com/about", true},
		{"case-insensitive host", "https://EXAMPLE.COM/x", true},
		{"http downgrade still same host", "http://example.com/x", true},
		{"subdomain differs", "https://blog.example.com/", false},
		{"other site", "https://other.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameOrigin(mustParse(t, tt.url), seed); got != tt.want {
				t.Errorf("SameOrigin(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestSkippableLink(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/about", false},
		{"https://example.com/contact", false},
		{"mailto:info@example.com", true},
		{"tel:+15125551234", true},
		{"javascript:void(0)", true},
		{"/brochure.pdf", true},
		{"/brochure.PDF", true},
		{"/photo.jpg?size=large", true},
		{"/theme.css", true},
		{"/app.js#section", true},
		{"/pricing?plan=pro", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := SkippableLink(tt.href); got != tt.want {
				t.Errorf("SkippableLink(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}
