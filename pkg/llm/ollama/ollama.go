// Package ollama implements pkg/llm's Chatter against Ollama's /api/chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/llm"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultMaxRetries is the number of additional attempts made after the
	// first failed call.
	DefaultMaxRetries = 2

	// retryDelay is the fixed wait between attempts.
	retryDelay = 500 * time.Millisecond
)

// Client wraps Ollama's non-streaming chat API.
type Client struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Ollama chat client.
type Config struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// MaxRetries is the number of retries after the first failed attempt.
	// Defaults to DefaultMaxRetries if negative or zero.
	MaxRetries int

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// chatRequest is the request body for Ollama's chat API.
type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []llm.Message `json:"messages"`
}

// chatResponse is the subset of Ollama's chat response the client reads.
type chatResponse struct {
	Message llm.Message `json:"message"`
}

// NewClient creates a new chat client against Ollama's /api/chat endpoint.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// LLM requests can be slow on small local hardware.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		maxRetries: maxRetries,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Chat sends the full message sequence to the model and returns the
// assistant's trimmed text. Transport errors and non-2xx statuses are
// retried with a fixed delay; exhausting every attempt wraps
// llm.ErrExhausted so callers can tell "could not reach the model" apart
// from "the model said nothing".
func (c *Client) Chat(ctx context.Context, model string, messages []llm.Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    model,
		Stream:   false,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", llm.ErrExhausted, ctx.Err())
			}
		}

		text, err := c.chatOnce(ctx, body)
		if err != nil {
			c.logger.Warn("chat attempt failed",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		return text, nil
	}

	return "", fmt.Errorf("%w: model %s, %d attempts", llm.ErrExhausted, model, c.maxRetries+1)
}

// chatOnce performs a single request against /api/chat.
func (c *Client) chatOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	// Missing or empty content is a valid, empty reply.
	return strings.TrimSpace(chatResp.Message.Content), nil
}

// Ensure Client implements llm.Chatter.
var _ llm.Chatter = (*Client)(nil)
