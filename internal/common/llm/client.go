// internal/common/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loanflow-workers/internal/common/config"
	commonhttp "loanflow-workers/internal/common/http"
	"loanflow-workers/internal/models"
)

// Client talks to an Ollama-compatible chat endpoint. Each call issues
// exactly one request with no retries: a slow or flaky model is handled by
// the caller's fallback chain, not by retrying here.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *commonhttp.Client
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Options  chatOptions          `json:"options"`
	Stream   bool                 `json:"stream"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message models.ChatMessage `json:"message"`
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
	}
}

// Chat sends the message history and returns the assistant reply text with
// surrounding whitespace trimmed. Transport, status, and decode problems
// all surface as errors.
func (c *Client) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	url := fmt.Sprintf("%s/api/chat", c.baseURL)

	payload := chatRequest{
		Model:    c.model,
		Messages: messages,
		Options:  chatOptions{Temperature: c.temperature},
		Stream:   false,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}
