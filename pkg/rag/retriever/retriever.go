package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"rag-orchestrator-be/pkg/embedding"
	"rag-orchestrator-be/pkg/store"
	"rag-orchestrator-be/pkg/vectorindex/qdrant"
)

// Index is the similarity-search surface the retriever needs from Qdrant.
type Index interface {
	Search(ctx context.Context, vector []float32, limit int) ([]qdrant.SearchResult, error)
}

type Config struct {
	TopK             int
	ScoreThreshold   float64
	MaxContextTokens int
	Deduplicate      bool
}

// Retriever turns a question into an ordered, filtered list of context
// chunks. Embedding or search failures surface as an error; the orchestrator
// treats that error as "no context" rather than failing the request.
type Retriever struct {
	embedder embedding.Provider
	index    Index
	cfg      Config
}

func New(embedder embedding.Provider, index Index, cfg Config) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]store.RetrievedChunk, error) {
	vector, err := r.embedder.Generate(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.index.Search(ctx, vector, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]store.RetrievedChunk, 0, len(results))
	seen := make(map[string]bool)
	usedTokens := 0

	// Candidates arrive in descending relevance order; that order is kept.
	for _, hit := range results {
		if hit.Score == nil || *hit.Score < r.cfg.ScoreThreshold {
			continue
		}

		text, _ := hit.Payload["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if r.cfg.Deduplicate {
			h := stableTextHash(text)
			if seen[h] {
				continue
			}
			seen[h] = true
		}

		tokens := estimateTokens(text)
		if r.cfg.MaxContextTokens > 0 && usedTokens+tokens > r.cfg.MaxContextTokens {
			// Budget exhausted: everything lower-ranked is dropped too.
			break
		}
		usedTokens += tokens

		metadata, ok := hit.Payload["metadata"].(map[string]interface{})
		if !ok {
			metadata = map[string]interface{}{}
		}

		chunks = append(chunks, store.RetrievedChunk{
			ID:       hit.ID,
			Text:     text,
			Score:    *hit.Score,
			Metadata: metadata,
		})
	}

	return chunks, nil
}

// EstimateTokens is the shared characters-per-token heuristic, roughly 4
// characters per token for English-like text.
func EstimateTokens(text string) int {
	return estimateTokens(text)
}

func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

func stableTextHash(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
