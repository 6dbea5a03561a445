// Package kserve implements the generation client for OpenAI-compatible
// completion backends: in-cluster KServe-hosted vLLM or external vLLM
// servers. The endpoint shape (chat payload, configurable completions path)
// is switched purely via configuration.
package kserve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rag-orchestrator-be/internal/metrics"
	"rag-orchestrator-be/pkg/llm"
)

// GenerationError is returned once every retry attempt is exhausted.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// errTransient marks upstream conditions worth retrying (503/504).
var errTransient = errors.New("upstream transient error")

type Client struct {
	baseURL         string
	completionsPath string
	modelID         string
	apiKey          string
	retries         int
	backoff         time.Duration
	httpClient      *http.Client

	// sleep is swapped out in tests to count backoff waits.
	sleep func(time.Duration)
}

type Config struct {
	BaseURL         string
	CompletionsPath string
	ModelID         string
	APIKey          string
	Timeout         time.Duration
	Retries         int
	Backoff         time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		completionsPath: cfg.CompletionsPath,
		modelID:         cfg.ModelID,
		apiKey:          cfg.APIKey,
		retries:         cfg.Retries,
		backoff:         cfg.Backoff,
		httpClient:      &http.Client{Timeout: timeout},
		sleep:           time.Sleep,
	}
}

var _ llm.Generator = &Client{}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate sends the full grounded prompt as a single user message. 503/504
// and transport failures are retried with a fixed backoff; any other non-2xx
// fails immediately. A response without the expected choices shape degrades
// to the raw body instead of erroring.
func (c *Client) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		MaxTokens:   512,
		Temperature: 0.2,
	}
	for _, o := range options {
		o(opts)
	}

	payload := chatRequest{
		Model:       c.modelID,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		answer, err := c.attempt(ctx, body)
		if err == nil {
			metrics.LLMRequestsTotal.WithLabelValues(c.modelID, "success").Inc()
			return answer, nil
		}

		metrics.LLMRequestsTotal.WithLabelValues(c.modelID, "error").Inc()
		lastErr = err

		if !isRetryable(err) {
			return "", &GenerationError{Attempts: attempt + 1, Err: err}
		}
		if attempt < c.retries {
			c.sleep(c.backoff)
		}
	}

	return "", &GenerationError{Attempts: c.retries + 1, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	url := c.baseURL + c.completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.LLMInferenceLatencySeconds.WithLabelValues(c.modelID).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout:
		return "", fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("backend error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err == nil &&
		len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
		if parsed.Usage != nil {
			if parsed.Usage.PromptTokens > 0 {
				metrics.LLMPromptTokensTotal.WithLabelValues(c.modelID).Add(float64(parsed.Usage.PromptTokens))
			}
			if parsed.Usage.CompletionTokens > 0 {
				metrics.LLMCompletionTokensTotal.WithLabelValues(c.modelID).Add(float64(parsed.Usage.CompletionTokens))
			}
		}
		return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
	}

	// Unexpected shape: return the raw body rather than fail the request.
	return string(bodyBytes), nil
}

func isRetryable(err error) bool {
	return errors.Is(err, errTransient)
}
