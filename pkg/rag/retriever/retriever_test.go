package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator-be/pkg/vectorindex/qdrant"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	results []qdrant.SearchResult
	err     error
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, limit int) ([]qdrant.SearchResult, error) {
	return f.results, f.err
}

func score(s float64) *float64 { return &s }

func hit(id string, s *float64, text string) qdrant.SearchResult {
	return qdrant.SearchResult{
		ID:    id,
		Score: s,
		Payload: map[string]interface{}{
			"text":     text,
			"metadata": map[string]interface{}{},
		},
	}
}

func TestRetrieveFiltersByScore(t *testing.T) {
	idx := &fakeIndex{results: []qdrant.SearchResult{
		hit("1", score(0.9), "Medical text"),
		hit("2", score(0.1), "Ignore me"),
	}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.5, MaxContextTokens: 2048, Deduplicate: true})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Medical text", chunks[0].Text)
	assert.Equal(t, 0.9, chunks[0].Score)
}

func TestRetrieveScoreEqualsThresholdIsKept(t *testing.T) {
	idx := &fakeIndex{results: []qdrant.SearchResult{
		hit("1", score(0.5), "Edge case text"),
	}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.5, MaxContextTokens: 2048})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Edge case text", chunks[0].Text)
}

func TestRetrieveSkipsMissingScoreAndEmptyText(t *testing.T) {
	idx := &fakeIndex{results: []qdrant.SearchResult{
		hit("1", nil, "no score"),
		hit("2", score(0.8), "   \t\n"),
		hit("3", score(0.7), "kept"),
	}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.25, MaxContextTokens: 2048})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "3", chunks[0].ID)
}

func TestRetrieveDeduplicatesByNormalizedText(t *testing.T) {
	idx := &fakeIndex{results: []qdrant.SearchResult{
		hit("1", score(0.9), "Normal adult heart rate is 60-100 bpm."),
		hit("2", score(0.8), "  normal   ADULT heart rate is 60-100 bpm. "),
		hit("3", score(0.7), "Something else entirely."),
	}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.25, MaxContextTokens: 2048, Deduplicate: true})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "1", chunks[0].ID)
	assert.Equal(t, "3", chunks[1].ID)
}

func TestRetrieveKeepsDuplicatesWhenDedupDisabled(t *testing.T) {
	idx := &fakeIndex{results: []qdrant.SearchResult{
		hit("1", score(0.9), "same text"),
		hit("2", score(0.8), "same text"),
	}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.25, MaxContextTokens: 2048, Deduplicate: false})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestRetrieveTokenBudgetStopsProcessing(t *testing.T) {
	long := strings.Repeat("a", 400) // ~100 tokens each
	var results []qdrant.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, hit(fmt.Sprintf("%d", i), score(0.9-float64(i)*0.01), long+fmt.Sprintf(" %d", i)))
	}
	// A later candidate small enough to fit again; the budget stop must not
	// skip-and-continue.
	results = append(results, hit("tiny", score(0.5), "tiny"))

	idx := &fakeIndex{results: results}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.25, MaxContextTokens: 250})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	total := 0
	for _, c := range chunks {
		total += EstimateTokens(c.Text)
	}
	assert.LessOrEqual(t, total, 250)
	// The next candidate would have exceeded the budget.
	assert.Greater(t, total+EstimateTokens(long), 250)
}

func TestRetrieveEmptyIndexResult(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeIndex{}, Config{ScoreThreshold: 0.25, MaxContextTokens: 2048})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	r := New(&fakeEmbedder{err: errors.New("model offline")}, &fakeIndex{}, Config{ScoreThreshold: 0.25})

	_, err := r.Retrieve(context.Background(), "query")
	assert.Error(t, err)
}

func TestRetrieveIndexFailure(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeIndex{err: errors.New("connection refused")}, Config{ScoreThreshold: 0.25})

	_, err := r.Retrieve(context.Background(), "query")
	assert.Error(t, err)
}

func TestRetrieveMetadataPassThrough(t *testing.T) {
	res := hit("1", score(0.9), "text")
	res.Payload["metadata"] = map[string]interface{}{"source": "doc.pdf"}
	bad := hit("2", score(0.8), "other text")
	bad.Payload["metadata"] = "not a mapping"

	idx := &fakeIndex{results: []qdrant.SearchResult{res, bad}}
	r := New(&fakeEmbedder{}, idx, Config{ScoreThreshold: 0.25, MaxContextTokens: 2048})

	chunks, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc.pdf", chunks[0].Metadata["source"])
	// Non-mapping metadata defaults to an empty map.
	assert.NotNil(t, chunks[1].Metadata)
	assert.Empty(t, chunks[1].Metadata)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}
