package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request-level metrics (low-cardinality).
var (
	ChatRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_chat_requests_total",
		Help: "Total number of /api/chat requests",
	})

	ChatErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_chat_errors_total",
		Help: "Total number of /api/chat errors",
	})

	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rag_inflight_requests",
		Help: "Number of in-flight /api/chat requests",
	})
)

// Retrieval metrics.
var (
	RetrievalLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_retrieval_latency_seconds",
		Help:    "Latency for vector retrieval (Qdrant search)",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	ContextTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_context_tokens",
		Help:    "Estimated tokens included in the retrieved context",
		Buckets: []float64{0, 128, 256, 512, 1024, 1536, 2048, 3072, 4096, 8192},
	})

	EmptyContextTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_empty_context_total",
		Help: "Number of times retrieval produced no usable context",
	})
)

// Generation metrics.
var (
	GenerationLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_generation_latency_seconds",
		Help:    "Latency for answer generation (backend or fallback)",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	})

	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_fallback_total",
		Help: "Number of times the orchestrator used the fallback answer path",
	})
)

// Per-model LLM client metrics.
var (
	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Total LLM backend requests by outcome",
	}, []string{"model", "status"})

	LLMInferenceLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_inference_latency_seconds",
		Help:    "Latency of individual LLM backend attempts",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"model"})

	LLMPromptTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_prompt_tokens_total",
		Help: "Prompt tokens reported by the LLM backend",
	}, []string{"model"})

	LLMCompletionTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_completion_tokens_total",
		Help: "Completion tokens reported by the LLM backend",
	}, []string{"model"})
)
