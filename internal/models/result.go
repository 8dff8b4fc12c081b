package models

// ScoredDoc is a single ranked retrieval hit.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Name  string  `json:"name,omitempty"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// QueryResponse is the response for one query evaluation.
type QueryResponse struct {
	Query     string       `json:"query"`
	Results   []*ScoredDoc `json:"results"`
	Total     int          `json:"total"`
	Expanded  []string     `json:"expanded_terms,omitempty"`
	QueryTime int64        `json:"query_time_ms"`
}
