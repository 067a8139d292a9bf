package extractor

import (
	"log/slog"
	nurl "net/url"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/siteforge/harvest/models"
)

const (
	// minParagraphLength filters boilerplate snippets out of the paragraph set.
	minParagraphLength = 40

	// maxAnchors bounds the anchor-text sample per page.
	maxAnchors = 100
)

// markdownConverter is goroutine-safe and shared across all pages.
var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// extractStructuredText pulls the page's textual skeleton: title, headings
// with level, substantial paragraphs, list items grouped by enclosing list,
// and a bounded sample of anchors.
func extractStructuredText(doc *goquery.Document) models.StructuredText {
	text := models.StructuredText{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		content := collapseSpace(s.Text())
		if content == "" {
			return
		}
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		text.Headings = append(text.Headings, models.Heading{Level: level, Text: content})
	})

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		content := collapseSpace(s.Text())
		if len(content) >= minParagraphLength {
			text.Paragraphs = append(text.Paragraphs, content)
		}
	})

	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		// Nested lists are collected at their own top-level pass; skip
		// lists whose parent chain already contains a list.
		if list.Parent().Closest("ul, ol").Length() > 0 {
			return
		}
		var items []string
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if item := collapseSpace(li.Text()); item != "" {
				items = append(items, item)
			}
		})
		if len(items) > 0 {
			text.Lists = append(text.Lists, items)
		}
	})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(text.Anchors) >= maxAnchors {
			return false
		}
		href, _ := s.Attr("href")
		anchor := collapseSpace(s.Text())
		if anchor == "" || href == "" {
			return true
		}
		text.Anchors = append(text.Anchors, models.Anchor{Text: anchor, Href: href})
		return true
	})

	return text
}

// extractMetadata reads head-level metadata: title, description, keywords,
// and every og:-prefixed tag.
func extractMetadata(doc *goquery.Document) models.PageMetadata {
	meta := models.PageMetadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if content == "" {
			return
		}
		switch name, _ := s.Attr("name"); strings.ToLower(name) {
		case "description":
			meta.Description = content
		case "keywords":
			meta.Keywords = content
		}
		if prop, _ := s.Attr("property"); strings.HasPrefix(strings.ToLower(prop), "og:") {
			if meta.OpenGraph == nil {
				meta.OpenGraph = make(map[string]string)
			}
			meta.OpenGraph[strings.ToLower(prop)] = content
		}
	})

	return meta
}

// extractContent runs readability over the rendered HTML for the main-body
// plain text, plus a markdown rendition for copy-pattern analysis. Both are
// best-effort: a readability failure yields empty strings, never an error.
func extractContent(rawHTML, sourceURL string) (textContent, markdown string) {
	parsed, err := nurl.Parse(sourceURL)
	if err != nil {
		return "", ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		slog.Debug("readability extraction failed", "url", sourceURL, "error", err)
		return visibleText(rawHTML), ""
	}
	textContent = strings.TrimSpace(article.TextContent)
	if textContent == "" {
		// Sparse single-screen sites often have no extractable article.
		textContent = visibleText(rawHTML)
	}

	if article.Content != "" {
		md, err := markdownConverter.ConvertString(article.Content,
			converter.WithDomain(sourceURL))
		if err != nil {
			slog.Debug("markdown conversion failed", "url", sourceURL, "error", err)
		} else {
			markdown = strings.TrimSpace(md)
		}
	}
	return textContent, markdown
}

// visibleText strips all markup from the rendered page with the HTML
// tokenizer, skipping script, style and noscript subtrees.
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var buf strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				buf.Write(tokenizer.Text())
				buf.WriteByte(' ')
			}
		}
	}
}

// collapseSpace trims and squeezes all runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
