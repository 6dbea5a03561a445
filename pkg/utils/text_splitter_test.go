package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	chunks := SplitText("short", 100, 20)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcde", 100) // 500 chars
	chunks := SplitText(text, 200, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
	}
	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0][150:], chunks[1][:50])
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 300)
	chunks := SplitText(text, 100, 100)

	// Falls back to non-overlapping steps instead of looping forever.
	assert.Len(t, chunks, 3)
}
