package models

// HarvestRequest is the payload for POST /api/v1/harvest.
type HarvestRequest struct {
	// StartURL is the seed page of the site to harvest. Required.
	StartURL string `json:"start_url" binding:"required,url"`

	// TemplateID keys the persisted records. Required.
	TemplateID string `json:"template_id" binding:"required"`

	// MaxPages limits the total number of pages harvested.
	// Default: 100. Max: 500.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`

	// MaxDepth limits the link distance from the seed URL.
	// Default: 5. Max: 10.
	MaxDepth int `json:"max_depth,omitempty" binding:"omitempty,min=1,max=10"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *HarvestRequest) Defaults() {
	if r.MaxPages == 0 {
		r.MaxPages = 100
	}
	if r.MaxDepth == 0 {
		r.MaxDepth = 5
	}
}

// HarvestResponse is the immediate response for POST /api/v1/harvest.
type HarvestResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// HarvestStatusResponse is the response for GET /api/v1/harvest/:id.
type HarvestStatusResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	PagesScraped int           `json:"pages_scraped"`
	Errors       []string      `json:"errors,omitempty"`
	Pages        []*PageRecord `json:"pages,omitempty"`
}

// HarvestJob tracks an in-progress harvest session.
type HarvestJob struct {
	ID            string
	TemplateID    string
	Status        string // "processing", "completed", "partial", "failed"
	PagesScraped  int
	Errors        []string
	Pages         []*PageRecord
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}

// HarvestSummary is the terminal result of one crawl session.
type HarvestSummary struct {
	PagesScraped int      `json:"pages_scraped"`
	Errors       []string `json:"errors"`
}

// ClassifyRequest is the payload for POST /api/v1/classify.
type ClassifyRequest struct {
	Candidates []CandidateSite `json:"candidates" binding:"required"`
}

// ClassifyResponse returns the surviving candidates with sequential ranks.
type ClassifyResponse struct {
	Candidates []CandidateSite `json:"candidates"`
	Rejected   int             `json:"rejected"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
