package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUnknownSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore(time.Hour)

	history := s.GetHistory(context.Background(), "nonexistent")
	assert.Empty(t, history)
}

func TestMemoryStoreAppendAndGet(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s.Append(ctx, "s1", "user", "hello")
	s.Append(ctx, "s1", "assistant", "hi")

	history := s.GetHistory(ctx, "s1")
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "hi", history[1].Content)
}

func TestMemoryStoreSeparateSessions(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s.Append(ctx, "s1", "user", "hello")
	s.Append(ctx, "s2", "user", "hi")

	assert.Len(t, s.GetHistory(ctx, "s1"), 1)
	assert.Len(t, s.GetHistory(ctx, "s2"), 1)
}

func TestMemoryStorePreservesOrder(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		s.Append(ctx, "s1", "user", fmt.Sprintf("m%d", i))
	}

	history := s.GetHistory(ctx, "s1")
	require.Len(t, history, 20)
	for i, m := range history {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
}

func TestMemoryStoreConcurrentDistinctSessions(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", id)
			for j := 0; j < 50; j++ {
				s.Append(ctx, sid, "user", fmt.Sprintf("m%d", j))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		assert.Len(t, s.GetHistory(ctx, fmt.Sprintf("s%d", i)), 50)
	}
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	s.Append(ctx, "s1", "user", "hello")
	assert.Len(t, s.GetHistory(ctx, "s1"), 1)
}
