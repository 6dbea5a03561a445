package store

// RetrievedChunk is the unit of retrieval: a bounded span of source text with
// its similarity score and pass-through metadata. It lives for one request.
type RetrievedChunk struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}
