package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"rag-orchestrator-be/pkg/llm"
)

// MemoryStore is the volatile fallback used when Redis is not configured.
// History lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (s *MemoryStore) GetHistory(ctx context.Context, sessionID string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history(sessionID)
}

func (s *MemoryStore) Append(ctx context.Context, sessionID, role, content string) {
	// The read-modify-write below must be atomic across goroutines sharing a
	// session id; go-cache only synchronizes individual operations.
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.history(sessionID), llm.Message{Role: role, Content: content})
	s.cache.Set(sessionID, history, cache.DefaultExpiration)
}

func (s *MemoryStore) history(sessionID string) []llm.Message {
	if x, found := s.cache.Get(sessionID); found {
		return x.([]llm.Message)
	}
	return []llm.Message{}
}
