package extractor

import (
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/siteforge/harvest/models"
)

// designTokenJS reads visual primitives off the live page's computed styles.
// Every lookup is wrapped so a missing element leaves its field empty rather
// than throwing.
const designTokenJS = `() => {
	const out = {};
	const style = el => el ? window.getComputedStyle(el) : null;
	try {
		const body = style(document.body);
		if (body) {
			out.backgroundColor = body.backgroundColor;
			out.textColor = body.color;
			out.bodyFontFamily = body.fontFamily;
			out.bodyFontWeight = body.fontWeight;
		}
	} catch (e) {}
	try {
		const h = style(document.querySelector('h1, h2, h3'));
		if (h) {
			out.headingFontFamily = h.fontFamily;
			out.headingFontWeight = h.fontWeight;
		}
	} catch (e) {}
	try {
		const btn = style(document.querySelector(
			'button, a.btn, a.button, [class*="btn-"], input[type="submit"], [role="button"]'));
		if (btn && btn.backgroundColor !== 'rgba(0, 0, 0, 0)') {
			out.primaryColor = btn.backgroundColor;
		}
	} catch (e) {}
	try {
		const main = style(document.querySelector(
			'main, [role="main"], .container, .wrapper, #content'));
		if (main) {
			out.containerMaxWidth = main.maxWidth;
		}
		const section = style(document.querySelector('section'));
		if (section) {
			out.sectionPadding = section.paddingTop + ' ' + section.paddingBottom;
		}
	} catch (e) {}
	return out;
}`

// extractDesignTokens infers colors, fonts, and spacing from the rendered
// page. All fields are optional; absence is expected and not an error.
func extractDesignTokens(p *rod.Page) models.DesignTokens {
	var tokens models.DesignTokens

	res, err := p.Eval(designTokenJS)
	if err != nil {
		slog.Debug("design token evaluation failed", "error", err)
		return tokens
	}

	v := res.Value
	tokens.BackgroundColor = v.Get("backgroundColor").Str()
	tokens.TextColor = v.Get("textColor").Str()
	tokens.PrimaryColor = v.Get("primaryColor").Str()
	tokens.HeadingFontFamily = v.Get("headingFontFamily").Str()
	tokens.HeadingFontWeight = v.Get("headingFontWeight").Str()
	tokens.BodyFontFamily = v.Get("bodyFontFamily").Str()
	tokens.BodyFontWeight = v.Get("bodyFontWeight").Str()
	tokens.ContainerMaxWidth = v.Get("containerMaxWidth").Str()
	tokens.SectionPadding = v.Get("sectionPadding").Str()

	// "none" max-width carries no signal.
	if tokens.ContainerMaxWidth == "none" {
		tokens.ContainerMaxWidth = ""
	}
	return tokens
}
