package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rag-orchestrator-be/internal/dto"
	"rag-orchestrator-be/internal/metrics"
	"rag-orchestrator-be/internal/pkg/logger"
	"rag-orchestrator-be/pkg/llm"
	"rag-orchestrator-be/pkg/rag/prompt"
	"rag-orchestrator-be/pkg/rag/retriever"
	"rag-orchestrator-be/pkg/session"
	"rag-orchestrator-be/pkg/store"
)

// Retriever is what the orchestrator needs from the retrieval layer. An
// error is the fail-open branch: it is always treated as an empty chunk list.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]store.RetrievedChunk, error)
}

type IOrchestratorService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

// GenerationParams carries the per-request generation knobs plus the span
// attribute values.
type GenerationParams struct {
	ModelID     string
	MaxTokens   int
	Temperature float64
	Collection  string
	TopK        int
}

// Pipeline states, linear and always reaching the end: internal failures
// degrade into fallback content instead of aborting the request.
type pipelineState string

const (
	stateReceived      pipelineState = "RECEIVED"
	stateHistoryLoaded pipelineState = "HISTORY_LOADED"
	stateRetrieved     pipelineState = "RETRIEVED"
	statePrompted      pipelineState = "PROMPTED"
	stateGenerated     pipelineState = "GENERATED"
	statePersisted     pipelineState = "PERSISTED"
	stateResponded     pipelineState = "RESPONDED"
)

type orchestratorService struct {
	retriever Retriever     // nil when no vector index is configured
	generator llm.Generator // nil when generation is not configured
	sessions  session.Store
	params    GenerationParams
	logger    logger.ILogger
	tracer    trace.Tracer
}

func NewOrchestratorService(
	ret Retriever,
	gen llm.Generator,
	sessions session.Store,
	params GenerationParams,
	log logger.ILogger,
) IOrchestratorService {
	return &orchestratorService{
		retriever: ret,
		generator: gen,
		sessions:  sessions,
		params:    params,
		logger:    log,
		tracer:    otel.Tracer("rag-orchestrator"),
	}
}

func (s *orchestratorService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	metrics.ChatRequestsTotal.Inc()
	metrics.Inflight.Inc()
	defer metrics.Inflight.Dec()

	ctx, rootSpan := s.tracer.Start(ctx, "rag.chat")
	defer rootSpan.End()

	state := stateReceived

	sessionID := req.SessionId
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	rootSpan.SetAttributes(attribute.String("session.id", sessionID))

	// Persist the inbound user message, then load the updated history for
	// prompting.
	s.sessions.Append(ctx, sessionID, "user", req.Message)
	history := s.sessions.GetHistory(ctx, sessionID)
	s.advance(&state, stateHistoryLoaded, sessionID)

	// Retrieval always runs against the raw question, never the prompt.
	chunks := s.retrieve(ctx, req.Message, sessionID)
	s.advance(&state, stateRetrieved, sessionID)

	promptText := prompt.Build(req.Message, chunks, history)
	s.advance(&state, statePrompted, sessionID)

	answer := s.generate(ctx, promptText, chunks, sessionID)
	s.advance(&state, stateGenerated, sessionID)

	s.sessions.Append(ctx, sessionID, "assistant", answer)
	history = s.sessions.GetHistory(ctx, sessionID)
	s.advance(&state, statePersisted, sessionID)

	res := &dto.ChatResponse{
		SessionId:   sessionID,
		Answer:      answer,
		History:     toDTOHistory(history),
		ContextUsed: len(chunks),
	}
	s.advance(&state, stateResponded, sessionID)
	return res, nil
}

func (s *orchestratorService) retrieve(ctx context.Context, query, sessionID string) []store.RetrievedChunk {
	ctx, span := s.tracer.Start(ctx, "retrieval.vector_search")
	defer span.End()
	span.SetAttributes(
		attribute.String("vector.db", "qdrant"),
		attribute.String("vector.collection", s.params.Collection),
		attribute.Int("vector.top_k", s.params.TopK),
	)

	var chunks []store.RetrievedChunk
	start := time.Now()
	if s.retriever != nil {
		var err error
		chunks, err = s.retriever.Retrieve(ctx, query)
		if err != nil {
			// Fail-open: the request still gets answered, just ungrounded.
			chunks = nil
			s.logger.Warn("orchestrator", "Retrieval skipped", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
	elapsed := time.Since(start)
	metrics.RetrievalLatencySeconds.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))

	estTokens := 0
	for _, c := range chunks {
		estTokens += retriever.EstimateTokens(c.Text)
	}
	metrics.ContextTokens.Observe(float64(estTokens))
	if len(chunks) == 0 {
		metrics.EmptyContextTotal.Inc()
	}

	s.logger.Info("orchestrator", "Retrieval finished", map[string]interface{}{
		"session_id":   sessionID,
		"retrieval_ms": elapsed.Milliseconds(),
		"chunks":       len(chunks),
		"est_tokens":   estTokens,
	})
	return chunks
}

func (s *orchestratorService) generate(ctx context.Context, promptText string, chunks []store.RetrievedChunk, sessionID string) string {
	ctx, span := s.tracer.Start(ctx, "llm.inference")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", "kserve"),
		attribute.String("llm.model", s.params.ModelID),
	)

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.GenerationLatencySeconds.Observe(elapsed.Seconds())
		s.logger.Info("orchestrator", "Generation finished", map[string]interface{}{
			"session_id": sessionID,
			"llm_ms":     elapsed.Milliseconds(),
		})
	}()

	if s.generator == nil {
		metrics.FallbackTotal.Inc()
		return fallbackAnswer(chunks)
	}

	answer, err := s.generator.Generate(ctx, promptText,
		llm.WithMaxTokens(s.params.MaxTokens),
		llm.WithTemperature(s.params.Temperature),
	)
	if err != nil {
		// Generation exhaustion is fatal to this step only; the request
		// still responds with fallback content.
		metrics.FallbackTotal.Inc()
		s.logger.Error("orchestrator", "Generation failed, using fallback answer", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return fallbackAnswer(chunks)
	}
	return answer
}

func fallbackAnswer(chunks []store.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "I don't have enough context. Ingest documents into Qdrant first."
	}

	listed := chunks
	if len(listed) > 3 {
		listed = listed[:3]
	}
	lines := make([]string, 0, len(listed))
	for _, c := range listed {
		lines = append(lines, "- "+c.Text+" [source:"+c.ID+"]")
	}
	return "General information based on available context:\n\n" +
		strings.Join(lines, "\n\n") +
		"\n\n(Configure KSERVE_BASE_URL for full generation.)"
}

func (s *orchestratorService) advance(state *pipelineState, next pipelineState, sessionID string) {
	*state = next
	s.logger.Debug("orchestrator", "Pipeline state", map[string]interface{}{
		"session_id": sessionID,
		"state":      string(next),
	})
}

func toDTOHistory(history []llm.Message) []dto.ChatMessage {
	out := make([]dto.ChatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, dto.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
