package classifier

import "regexp"

// blockedDomains are directory, aggregator, review, social, news, and
// marketplace platforms that are never a business's own website. Matching is
// by hostname suffix with the leading "www." stripped.
var blockedDomains = []string{
	// Directories and review aggregators.
	"yelp.com", "yellowpages.com", "bbb.org", "angi.com", "angieslist.com",
	"thumbtack.com", "houzz.com", "trustpilot.com", "glassdoor.com",
	"manta.com", "superpages.com", "citysearch.com", "merchantcircle.com",
	"chamberofcommerce.com", "foursquare.com", "mapquest.com",
	"clutch.co", "upcity.com", "expertise.com", "goodfirms.co",
	"designrush.com", "sortlist.com", "g2.com", "capterra.com",
	"avvo.com", "findlaw.com", "justia.com", "lawyers.com",
	"healthgrades.com", "zocdoc.com", "vitals.com", "webmd.com",
	"zillow.com", "realtor.com", "apartments.com", "tripadvisor.com",
	// Social and media platforms.
	"facebook.com", "instagram.com", "twitter.com", "x.com",
	"linkedin.com", "youtube.com", "pinterest.com", "tiktok.com",
	"reddit.com", "medium.com", "nextdoor.com", "wikipedia.org",
	// Marketplaces.
	"amazon.com", "ebay.com", "etsy.com", "craigslist.org",
	"indeed.com", "fiverr.com", "upwork.com",
	// News outlets.
	"forbes.com", "nytimes.com", "cnn.com", "bloomberg.com",
	"businessinsider.com", "techcrunch.com", "usatoday.com",
	"huffpost.com", "buzzfeed.com",
}

// directoryPathSegments mark URLs that point into a listing structure rather
// than a site of its own.
var directoryPathSegments = []string{
	"/directory/", "/directories/", "/listings/", "/listing/",
	"/category/", "/categories/", "/browse/", "/search?",
	"/reviews/", "/vendors/", "/find-a-", "/best-of/",
}

// titleRule is one listicle/aggregator title signature.
type titleRule struct {
	name    string
	pattern *regexp.Regexp
}

// titleRules reject aggregator-style titles. Each rule is independently
// unit-testable; extending the set never touches control flow.
var titleRules = []titleRule{
	{
		// "25 Accounting Firms", "15 Best Plumbers in Denver"
		name: "number-listicle",
		pattern: regexp.MustCompile(`(?i)^\d+\+?\s+(?:best\s+|top\s+)?\w+(?:\s+\w+){0,3}\s+` +
			`(?:firms?|companies|agencies|businesses|services|providers|contractors|` +
			`lawyers|attorneys|accountants|dentists|doctors|plumbers|electricians|` +
			`roofers|realtors|restaurants|shops|stores|builders|designers|developers)\b`),
	},
	{
		// "Top 10 Accounting Firms in Austin"
		name:    "top-n",
		pattern: regexp.MustCompile(`(?i)\btop[\s-]*\d+\b`),
	},
	{
		// "Best Roofing Companies of 2025", "The Best Dentists Near You"
		name:    "best-ranking",
		pattern: regexp.MustCompile(`(?i)\b(?:the\s+)?best\s+\w[\w\s]*\b(?:in|of|near|for)\b`),
	},
	{
		name:    "ranking-vocab",
		pattern: regexp.MustCompile(`(?i)\b(?:ranked|rankings?|rated|ratings?|reviews?\s+of|compared?|versus|vs\.?)\b`),
	},
	{
		name:    "aggregator-superlative",
		pattern: regexp.MustCompile(`(?i)\b(?:most\s+trusted|leading|award[\s-]?winning|top[\s-]?rated|handpicked|curated)\b`),
	},
	{
		name:    "directory-keyword",
		pattern: regexp.MustCompile(`(?i)\b(?:directory|listings?|marketplace|near\s+me|find\s+(?:a|the|local)|hire\s+(?:a|the))\b`),
	},
}

// snippetPhrases are directory-browsing phrases in result snippets.
var snippetPhrases = []string{
	"view all",
	"browse all",
	"directory of",
	"compare quotes",
	"read reviews",
	"find the best",
}
