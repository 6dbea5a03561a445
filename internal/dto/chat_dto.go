package dto

// ChatMessage mirrors one stored history entry in API responses.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SessionId string `json:"session_id,omitempty"`
	Message   string `json:"message" validate:"required"`
}

type ChatResponse struct {
	SessionId   string        `json:"session_id"`
	Answer      string        `json:"answer"`
	History     []ChatMessage `json:"history"`
	ContextUsed int           `json:"context_used"`
}
