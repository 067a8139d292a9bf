package models

// CandidateSite is a proposed harvest target, pre-classification. Produced
// externally (e.g. by a search provider), consumed once by the classifier.
type CandidateSite struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`

	// Rank is the candidate's position. After filtering it is re-assigned
	// sequentially starting at 1; the original external ranking is discarded
	// since position among filtered results is the meaningful signal.
	Rank int `json:"rank"`
}
