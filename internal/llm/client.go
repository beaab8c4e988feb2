// Package llm holds the optional analysis layer: a chat-completions
// client, the prompt builder, and the on-disk analysis cache. Nothing in
// the index pipeline depends on it.
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

	"github.com/tidwall/gjson"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/logging"
)

const (
	defaultTimeout    = 120 * time.Second
	defaultAttempts   = 3
	initialRetryDelay = 2 * time.Second
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// apiError keeps the HTTP status so the retry loop can tell rate limits
// and server errors from permanent request failures.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.status, e.message)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	attempts    int
	retryDelay  time.Duration
	httpClient  *http.Client
	log         logging.Logger
}

func NewClient(cfg config.LLM, log logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is empty (set CARTO_API_KEY or OPENAI_API_KEY)")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is empty")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		attempts:    defaultAttempts,
		retryDelay:  initialRetryDelay,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		log:         log,
	}, nil
}

// Complete sends the prompt and returns the model's text. Rate limits,
// server errors and network failures are retried with a doubling delay;
// client errors fail immediately.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying LLM request in %v (attempt %d/%d)", delay, attempt+1, c.attempts)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		start := time.Now()
		content, err := c.complete(ctx, prompt)
		if err == nil {
			c.log.Debug("LLM request succeeded in %v (attempt %d)", time.Since(start), attempt+1)
			return content, nil
		}
		lastErr = err
		c.log.Debug("LLM request failed in %v: %v", time.Since(start), err)
		if !retryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("llm request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apiError{status: resp.StatusCode, message: errorMessage(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	c.log.Debug("LLM response id=%s tokens=%d", parsed.ID, parsed.Usage.TotalTokens)
	return parsed.Choices[0].Message.Content, nil
}

// errorMessage pulls the API error text out of whatever body shape came
// back, falling back to the raw body.
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func retryable(err error) bool {
	if apiErr, ok := err.(*apiError); ok {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host")
}
