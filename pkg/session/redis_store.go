package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-orchestrator-be/internal/pkg/logger"
	"rag-orchestrator-be/pkg/llm"
)

// RedisStore keeps each session's history as one JSON value. Every write
// refreshes the TTL, so a session expires only after going quiet.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.ILogger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *RedisStore) GetHistory(ctx context.Context, sessionID string) []llm.Message {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("session", "Redis read failed, treating history as empty", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return []llm.Message{}
	}

	var history []llm.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.Warn("session", "Corrupt session payload, treating history as empty", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return []llm.Message{}
	}
	return history
}

func (s *RedisStore) Append(ctx context.Context, sessionID, role, content string) {
	history := append(s.GetHistory(ctx, sessionID), llm.Message{Role: role, Content: content})

	payload, err := json.Marshal(history)
	if err != nil {
		s.logger.Error("session", "Failed to serialize session history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		s.logger.Warn("session", "Redis write failed, message dropped from durable history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
