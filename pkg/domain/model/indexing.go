package model

// IndexResult is the report of one bulk indexing run
type IndexResult struct {
	Success   bool     `json:"success"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// IndexStatus counts entries of one source type by vectorization state
type IndexStatus struct {
	Total        int `json:"total"`
	Vectorized   int `json:"vectorized"`
	Unvectorized int `json:"unvectorized"`
}
