// Package session persists per-session chat history as a whole-value
// key-value record: each append rewrites the full serialized history. That is
// intentionally simple; prompting only ever replays the tail of the history.
// Two concurrent appends to the same session may race and the last full
// snapshot wins.
package session

import (
	"context"

	"rag-orchestrator-be/pkg/llm"
)

// Store is the session history contract. GetHistory never errors toward the
// caller for an unknown id; it returns an empty history.
type Store interface {
	GetHistory(ctx context.Context, sessionID string) []llm.Message
	Append(ctx context.Context, sessionID, role, content string)
}
