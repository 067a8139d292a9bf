package models

// PageRecord is the crawl unit of work and the persisted output shape.
// It is immutable once persisted. Order reflects the discovery sequence
// within one harvest session; the home page is always order 0.
type PageRecord struct {
	URL        string `json:"url"`
	Path       string `json:"path"`
	Depth      int    `json:"depth"`
	IsHomePage bool   `json:"is_home_page"`
	Order      int    `json:"order"`

	HTMLContent string `json:"html_content"`
	CSSContent  string `json:"css_content"`
	JSContent   string `json:"js_content"`

	Images      []PageImage    `json:"images"`
	Text        StructuredText `json:"text"`
	Tokens      DesignTokens   `json:"design_tokens"`
	Metadata    PageMetadata   `json:"metadata"`

	// TextContent is the readability-extracted main body as plain text.
	TextContent string `json:"text_content"`

	// ContentMarkdown is a markdown rendition of the main content, kept for
	// downstream copy-pattern analysis.
	ContentMarkdown string `json:"content_markdown,omitempty"`

	// ResolvedURL is set only when the page lives on an award-showcase
	// platform and the actual business site could be resolved from it.
	ResolvedURL string `json:"resolved_url,omitempty"`
}

// PageImage is one discovered image with its discovery surface and context.
// A failed download is recorded per image and never aborts the page.
type PageImage struct {
	Src     string `json:"src"`
	Alt     string `json:"alt,omitempty"`
	Surface string `json:"surface"` // "img", "css-background", "inline-svg"
	Context string `json:"context,omitempty"`
	Data    []byte `json:"-"`
	Size    int    `json:"size,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StructuredText is the page's textual skeleton.
type StructuredText struct {
	Title      string     `json:"title"`
	Headings   []Heading  `json:"headings"`
	Paragraphs []string   `json:"paragraphs"`
	Lists      [][]string `json:"lists"`
	Anchors    []Anchor   `json:"anchors"`
}

// Heading is one heading element with its level (1-6).
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Anchor is one link's text and resolved href.
type Anchor struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// DesignTokens are visual primitives inferred from computed styles.
// Every field is best-effort; absence is expected and not an error.
type DesignTokens struct {
	BackgroundColor   string `json:"background_color,omitempty"`
	TextColor         string `json:"text_color,omitempty"`
	PrimaryColor      string `json:"primary_color,omitempty"`
	HeadingFontFamily string `json:"heading_font_family,omitempty"`
	HeadingFontWeight string `json:"heading_font_weight,omitempty"`
	BodyFontFamily    string `json:"body_font_family,omitempty"`
	BodyFontWeight    string `json:"body_font_weight,omitempty"`
	ContainerMaxWidth string `json:"container_max_width,omitempty"`
	SectionPadding    string `json:"section_padding,omitempty"`
}

// PageMetadata holds head-level information extracted during rendering.
type PageMetadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Keywords    string            `json:"keywords,omitempty"`
	OpenGraph   map[string]string `json:"open_graph,omitempty"`
}
