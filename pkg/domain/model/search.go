package model

// SearchResult is what callers see of a matched entry
type SearchResult struct {
	TextChunk string   `json:"text_chunk"`
	Metadata  Metadata `json:"metadata"`
}

// SearchResponse is the body of both RAG search endpoints
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"totalResults"`
	Query        string         `json:"query"`
}

// NewSearchResponse projects entries onto the caller-facing shape
func NewSearchResponse(query string, entries []*KnowledgeEntry) *SearchResponse {
	results := make([]SearchResult, len(entries))
	for i, e := range entries {
		results[i] = SearchResult{
			TextChunk: e.TextChunk,
			Metadata:  e.Metadata,
		}
	}
	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Query:        query,
	}
}
