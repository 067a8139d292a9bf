package classifier

import (
	"testing"

	"github.com/siteforge/harvest/models"
)

func TestIsRealBusinessSite_CanonicalPair(t *testing.T) {
	if IsRealBusinessSite("https://smithcpa.com", "Smith & Associates Accounting", "Full-service accounting firm serving Austin since 1992.") != true {
		t.Error("genuine business site rejected")
	}
	if IsRealBusinessSite("https://bestfirmsblog.com/austin", "Top 10 Accounting Firms in Austin", "") != false {
		t.Error("listicle accepted")
	}
}

func TestIsRealBusinessSite_URLRules(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"plain business", "https://smithassociates.com", true},
		{"www stripped", "https://www.smithassociates.com/about", true},
		{"yelp listing", "https://www.yelp.com/biz/smith-associates", false},
		{"yelp subdomain", "https://m.yelp.com/biz/smith-associates", false},
		{"facebook page", "https://facebook.com/smithassociates", false},
		{"linkedin company", "https://www.linkedin.com/company/smith", false},
		{"directory path", "https://example.com/directory/accountants", false},
		{"category path", "https://example.com/category/plumbers", false},
		{"search query path", "https://example.com/search?q=accountants", false},
		{"not http", "ftp://smithassociates.com", false},
		{"bare hostname", "https://localhost", false},
		{"unparseable", "http://%zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRealBusinessSite(tt.url, "Smith & Associates", ""); got != tt.want {
				t.Errorf("IsRealBusinessSite(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsRealBusinessSite_TitleRules(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"plain company name", "Smith & Associates Accounting", true},
		{"company with location", "Denver Roofing Co. | Residential & Commercial", true},
		{"top-n", "Top 10 Accounting Firms in Austin", false},
		{"top-n hyphenated", "Top-25 Plumbers You Can Trust", false},
		{"number listicle", "15 Best Plumbing Companies in Denver", false},
		{"best-of ranking", "Best Roofing Companies of 2025", false},
		{"ranked vocab", "Accounting Firms Ranked by Revenue", false},
		{"versus comparison", "QuickBooks vs Xero", false},
		{"near me", "Plumbers Near Me - Fast Service", false},
		{"directory keyword", "Austin Business Directory", false},
		{"hire-a keyword", "Hire a Local Electrician Today", false},
		{"curated aggregator", "Handpicked Web Design Agencies", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRealBusinessSite("https://example-site.com", tt.title, ""); got != tt.want {
				t.Errorf("title %q: got %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsRealBusinessSite_SnippetRules(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    bool
	}{
		{"business snippet", "We provide tax preparation and bookkeeping for small businesses.", true},
		{"empty snippet", "", true},
		{"browse-all snippet", "Browse all 200 accounting firms in your area.", false},
		{"compare quotes snippet", "Compare quotes from top-rated local pros.", false},
		{"read reviews snippet", "Read reviews of the firms before you decide.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRealBusinessSite("https://example-site.com", "Example Site", tt.snippet); got != tt.want {
				t.Errorf("snippet %q: got %v, want %v", tt.snippet, got, tt.want)
			}
		})
	}
}

func TestFilterCandidates_SequentialReranking(t *testing.T) {
	candidates := []models.CandidateSite{
		{URL: "https://smithcpa.com", Title: "Smith & Associates Accounting", Rank: 1},
		{URL: "https://www.yelp.com/biz/jones-cpa", Title: "Jones CPA - Yelp", Rank: 2},
		{URL: "https://jonescpa.com", Title: "Jones CPA Group", Rank: 3},
		{URL: "https://bestaccountants.com/austin", Title: "Top 10 Accounting Firms in Austin", Rank: 4},
		{URL: "https://garciabooks.com", Title: "Garcia Bookkeeping", Rank: 5},
	}

	filtered := FilterCandidates(candidates)
	if len(filtered) != 3 {
		t.Fatalf("kept %d candidates, want 3", len(filtered))
	}

	wantURLs := []string{"https://smithcpa.com", "https://jonescpa.com", "https://garciabooks.com"}
	for i, c := range filtered {
		if c.URL != wantURLs[i] {
			t.Errorf("survivor %d = %s, want %s (relative order must hold)", i, c.URL, wantURLs[i])
		}
		if c.Rank != i+1 {
			t.Errorf("survivor %d rank = %d, want %d (sequential from 1)", i, c.Rank, i+1)
		}
	}
}

func TestFilterCandidates_AllRejected(t *testing.T) {
	candidates := []models.CandidateSite{
		{URL: "https://yelp.com/biz/a", Title: "A"},
		{URL: "https://facebook.com/b", Title: "B"},
	}
	filtered := FilterCandidates(candidates)
	if len(filtered) != 0 {
		t.Errorf("kept %d, want 0", len(filtered))
	}
}

func TestFilterCandidates_Empty(t *testing.T) {
	if got := FilterCandidates(nil); len(got) != 0 {
		t.Errorf("FilterCandidates(nil) = %v, want empty", got)
	}
}
