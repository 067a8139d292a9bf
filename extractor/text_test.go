package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const fixtureHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Smith &amp; Associates Accounting</title>
	<meta name="description" content="Full-service accounting firm in Austin.">
	<meta name="keywords" content="accounting, tax, bookkeeping">
	<meta property="og:title" content="Smith & Associates">
	<meta property="og:image" content="https://smithcpa.com/og.png">
	<meta property="twitter:card" content="summary">
</head>
<body>
	<h1>Smith &amp; Associates</h1>
	<h2>Tax  Preparation</h2>
	<h3></h3>
	<p>Short.</p>
	<p>We have served small businesses across central Texas for over thirty years with care.</p>
	<ul>
		<li>Bookkeeping</li>
		<li>Payroll
			<ul><li>Monthly runs</li></ul>
		</li>
	</ul>
	<ol>
		<li>Call us</li>
		<li>Get a quote</li>
	</ol>
	<a href="/about">About  Us</a>
	<a href="/contact">Contact</a>
	<a href="/empty"></a>
</body>
</html>`

func TestExtractStructuredText(t *testing.T) {
	text := extractStructuredText(docFrom(t, fixtureHTML))

	if text.Title != "Smith & Associates Accounting" {
		t.Errorf("title = %q", text.Title)
	}

	if len(text.Headings) != 2 {
		t.Fatalf("headings = %+v, want 2 (empty h3 dropped)", text.Headings)
	}
	if text.Headings[0].Level != 1 || text.Headings[0].Text != "Smith & Associates" {
		t.Errorf("h1 = %+v", text.Headings[0])
	}
	if text.Headings[1].Level != 2 || text.Headings[1].Text != "Tax Preparation" {
		t.Errorf("h2 = %+v (whitespace must collapse)", text.Headings[1])
	}

	if len(text.Paragraphs) != 1 {
		t.Fatalf("paragraphs = %v, want 1 (short one filtered)", text.Paragraphs)
	}
	if !strings.HasPrefix(text.Paragraphs[0], "We have served") {
		t.Errorf("paragraph = %q", text.Paragraphs[0])
	}

	// Two top-level lists; the nested ul folds into its parent's items.
	if len(text.Lists) != 2 {
		t.Fatalf("lists = %v, want 2 top-level lists", text.Lists)
	}
	if len(text.Lists[1]) != 2 || text.Lists[1][0] != "Call us" {
		t.Errorf("ordered list = %v", text.Lists[1])
	}

	if len(text.Anchors) != 2 {
		t.Fatalf("anchors = %+v, want 2 (empty-text anchor dropped)", text.Anchors)
	}
	if text.Anchors[0].Text != "About Us" || text.Anchors[0].Href != "/about" {
		t.Errorf("anchor 0 = %+v", text.Anchors[0])
	}
}

func TestExtractStructuredText_AnchorCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < maxAnchors+50; i++ {
		b.WriteString(`<a href="/x">link</a>`)
	}
	b.WriteString("</body></html>")

	text := extractStructuredText(docFrom(t, b.String()))
	if len(text.Anchors) != maxAnchors {
		t.Errorf("anchors = %d, want capped at %d", len(text.Anchors), maxAnchors)
	}
}

func TestExtractMetadata(t *testing.T) {
	meta := extractMetadata(docFrom(t, fixtureHTML))

	if meta.Title != "Smith & Associates Accounting" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Description != "Full-service accounting firm in Austin." {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Keywords != "accounting, tax, bookkeeping" {
		t.Errorf("keywords = %q", meta.Keywords)
	}
	if got := meta.OpenGraph["og:title"]; got != "Smith & Associates" {
		t.Errorf("og:title = %q", got)
	}
	if got := meta.OpenGraph["og:image"]; got != "https://smithcpa.com/og.png" {
		t.Errorf("og:image = %q", got)
	}
	if _, ok := meta.OpenGraph["twitter:card"]; ok {
		t.Error("non-og property captured in OpenGraph map")
	}
}

func TestExtractMetadata_BarePage(t *testing.T) {
	meta := extractMetadata(docFrom(t, "<html><body><p>hi</p></body></html>"))
	if meta.Title != "" || meta.Description != "" || meta.OpenGraph != nil {
		t.Errorf("bare page metadata = %+v, want zero values", meta)
	}
}

func TestExtractContent(t *testing.T) {
	html := `<html><head><title>Post</title></head><body><article>
		<h1>Our Story</h1>
		<p>Smith and Associates opened its doors in 1992 with two employees and one client.
		The early years were spent working out of a small office on Congress Avenue, handling
		tax returns for neighborhood shops and a handful of family farms in the surrounding
		counties. Word of mouth did the rest of the marketing.</p>
		<p>Today the firm serves more than four hundred businesses across central Texas,
		from single-owner storefronts to manufacturers with a hundred employees. The work
		has grown to cover bookkeeping, payroll administration, quarterly filings, audit
		support, and long-range financial planning for owners preparing a succession.</p>
		<p>Through every change the approach has stayed the same: know the client's business
		well enough that the numbers tell a story, and explain that story in plain language
		rather than jargon. That is what has kept clients here for decades.</p>
	</article></body></html>`

	textContent, markdown := extractContent(html, "https://smithcpa.com/story")
	if !strings.Contains(textContent, "opened its doors in 1992") {
		t.Errorf("text content missing body: %q", textContent)
	}
	if !strings.Contains(markdown, "Our Story") {
		t.Errorf("markdown missing heading: %q", markdown)
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  a  b  ", "a b"},
		{"a\n\tb", "a b"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := collapseSpace(tt.in); got != tt.want {
			t.Errorf("collapseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVisibleText(t *testing.T) {
	const page = `<html><head><title>Pixel</title>
		<style>body { color: red }</style>
		<script>var tracked = "invisible";</script></head>
		<body><h1>Pixel &amp; Co</h1><noscript>enable javascript</noscript>
		<p>Design   studio</p></body></html>`

	got := visibleText(page)
	if got != "Pixel Pixel & Co Design studio" {
		t.Errorf("visibleText = %q", got)
	}
	if strings.Contains(got, "invisible") || strings.Contains(got, "color") {
		t.Errorf("visibleText leaked script or style content: %q", got)
	}
}
