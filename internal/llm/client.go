/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

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

	"pgedge-sales-analyst/internal/config"
	"pgedge-sales-analyst/internal/logging"
)

// ErrNoSQL is returned when the model responded but no SQL statement could
// be extracted from its output. The GeneratedQuery returned alongside it
// still carries the raw output so callers can show it to the user.
var ErrNoSQL = errors.New("no SQL statement found in model output")

// GeneratedQuery is the outcome of one translation request
type GeneratedQuery struct {
	Question  string
	RawOutput string
	SQL       string
	CreatedAt time.Time
}

// Client handles interactions with the completion service (OpenAI,
// Anthropic, or Ollama's OpenAI-compatible endpoint)
type Client struct {
	provider    string
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// Default API endpoints per provider
const (
	openAIBaseURL    = "https://api.openai.com"
	anthropicBaseURL = "https://api.anthropic.com/v1"
)

// NewClient creates a translation client from the LLM configuration
func NewClient(cfg config.LLMConfig) *Client {
	c := &Client{
		provider:    cfg.Provider,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}

	switch cfg.Provider {
	case "openai":
		c.apiKey = cfg.OpenAIAPIKey
		c.baseURL = openAIBaseURL
	case "anthropic":
		c.apiKey = cfg.AnthropicAPIKey
		c.baseURL = anthropicBaseURL
	case "ollama":
		c.baseURL = strings.TrimSuffix(cfg.OllamaURL, "/")
	}

	return c
}

// SetBaseURL overrides the provider endpoint. Used by tests and by
// OpenAI-compatible gateways.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// IsConfigured returns whether the client is properly configured
func (c *Client) IsConfigured() bool {
	switch c.provider {
	case "openai", "anthropic":
		return c.apiKey != "" && c.model != ""
	case "ollama":
		return c.baseURL != "" && c.model != ""
	default:
		return false
	}
}

// Translate sends the user's question with the schema context to the
// completion service and extracts a single SQL statement from the reply.
// On ErrNoSQL the returned GeneratedQuery still carries RawOutput.
func (c *Client) Translate(ctx context.Context, question, schemaContext string) (GeneratedQuery, error) {
	result := GeneratedQuery{
		Question:  question,
		CreatedAt: time.Now(),
	}

	if !c.IsConfigured() {
		return result, fmt.Errorf("LLM client not configured for provider %q", c.provider)
	}

	prompt := BuildPrompt(question, schemaContext)

	var raw string
	var err error
	switch c.provider {
	case "anthropic":
		raw, err = c.completeWithAnthropic(ctx, prompt)
	case "openai", "ollama":
		raw, err = c.completeWithOpenAI(ctx, prompt)
	default:
		return result, fmt.Errorf("unsupported LLM provider: %s", c.provider)
	}
	if err != nil {
		return result, err
	}

	result.RawOutput = raw

	extraction := ExtractSQL(raw)
	if !extraction.Found {
		logging.Warn("Model output contained no SQL", "provider", c.provider, "model", c.model)
		return result, ErrNoSQL
	}

	result.SQL = extraction.SQL
	return result, nil
}

// completeWithAnthropic uses Anthropic's Messages API
func (c *Client) completeWithAnthropic(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	body, err := c.post(ctx, c.baseURL+"/messages", reqBody, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return strings.TrimSpace(claudeResp.Content[0].Text), nil
}

// completeWithOpenAI uses the chat completions API, which Ollama also serves
func (c *Client) completeWithOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Stream: false,
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	body, err := c.post(ctx, c.baseURL+"/v1/chat/completions", reqBody, headers)
	if err != nil {
		return "", err
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(openAIResp.Choices[0].Message.Content), nil
}

// post sends a JSON request and returns the response body for 200 responses
func (c *Client) post(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close HTTP response body", "error", err.Error())
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateForError(string(body)))
	}

	return body, nil
}

// truncateForError keeps provider error bodies readable in logs and the UI
func truncateForError(s string) string {
	const maxLen = 512
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// chatMessage is shared by both wire formats
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Internal types for the Anthropic Messages API
type claudeRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type claudeResponse struct {
	ID      string               `json:"id"`
	Type    string               `json:"type"`
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Internal types for the OpenAI chat completions API (Ollama-compatible)
type openAIRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}
