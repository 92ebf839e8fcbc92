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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pgedge-sales-analyst/internal/config"
)

func testLLMConfig(provider string) config.LLMConfig {
	return config.LLMConfig{
		Provider:        provider,
		Model:           "test-model",
		OpenAIAPIKey:    "test-openai-key",
		AnthropicAPIKey: "test-anthropic-key",
		OllamaURL:       "http://localhost:11434",
		MaxTokens:       1000,
		Temperature:     0.1,
		TimeoutSeconds:  5,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("openai defaults", func(t *testing.T) {
		client := NewClient(testLLMConfig("openai"))
		if client.baseURL != "https://api.openai.com" {
			t.Errorf("baseURL = %q, want OpenAI endpoint", client.baseURL)
		}
		if client.apiKey != "test-openai-key" {
			t.Errorf("apiKey = %q, want the OpenAI key", client.apiKey)
		}
	})

	t.Run("anthropic defaults", func(t *testing.T) {
		client := NewClient(testLLMConfig("anthropic"))
		if client.baseURL != "https://api.anthropic.com/v1" {
			t.Errorf("baseURL = %q, want Anthropic endpoint", client.baseURL)
		}
		if client.apiKey != "test-anthropic-key" {
			t.Errorf("apiKey = %q, want the Anthropic key", client.apiKey)
		}
	})

	t.Run("ollama uses configured URL", func(t *testing.T) {
		cfg := testLLMConfig("ollama")
		cfg.OllamaURL = "http://ollama.internal:11434/"
		client := NewClient(cfg)
		if client.baseURL != "http://ollama.internal:11434" {
			t.Errorf("baseURL = %q, want trimmed Ollama URL", client.baseURL)
		}
	})
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.LLMConfig)
		provider string
		expected bool
	}{
		{name: "openai with key", provider: "openai", expected: true},
		{
			name:     "openai without key",
			provider: "openai",
			mutate:   func(c *config.LLMConfig) { c.OpenAIAPIKey = "" },
			expected: false,
		},
		{name: "anthropic with key", provider: "anthropic", expected: true},
		{
			name:     "anthropic without key",
			provider: "anthropic",
			mutate:   func(c *config.LLMConfig) { c.AnthropicAPIKey = "" },
			expected: false,
		},
		{name: "ollama with url", provider: "ollama", expected: true},
		{
			name:     "ollama without url",
			provider: "ollama",
			mutate:   func(c *config.LLMConfig) { c.OllamaURL = "" },
			expected: false,
		},
		{name: "unknown provider", provider: "bedrock", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testLLMConfig(tt.provider)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			client := NewClient(cfg)
			if got := client.IsConfigured(); got != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTranslateOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-openai-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("max_tokens = %d, want 1000", req.MaxTokens)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "User Question: count customers") {
			t.Error("prompt not forwarded in the request message")
		}

		resp := openAIResponse{
			Choices: []openAIChoice{
				{Message: chatMessage{Role: "assistant", Content: "```sql\nSELECT COUNT(*) FROM customer\n```"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testLLMConfig("openai"))
	client.SetBaseURL(server.URL)

	generated, err := client.Translate(context.Background(), "count customers", "schema context")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if generated.SQL != "SELECT COUNT(*) FROM customer" {
		t.Errorf("SQL = %q, want extracted statement", generated.SQL)
	}
	if generated.Question != "count customers" {
		t.Errorf("Question = %q, want original question", generated.Question)
	}
	if generated.RawOutput == "" {
		t.Error("RawOutput is empty, want the model reply")
	}
}

func TestTranslateAnthropic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-anthropic-key" {
			t.Errorf("x-api-key = %q, want the API key", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q, want 2023-06-01", got)
		}

		resp := claudeResponse{
			Content: []claudeContentBlock{
				{Type: "text", Text: "SELECT regionname FROM region"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testLLMConfig("anthropic"))
	client.SetBaseURL(server.URL)

	generated, err := client.Translate(context.Background(), "list regions", "schema context")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if generated.SQL != "SELECT regionname FROM region" {
		t.Errorf("SQL = %q, want the statement", generated.SQL)
	}
}

func TestTranslateNoSQL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIResponse{
			Choices: []openAIChoice{
				{Message: chatMessage{Role: "assistant", Content: "I cannot answer that with this schema."}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testLLMConfig("openai"))
	client.SetBaseURL(server.URL)

	generated, err := client.Translate(context.Background(), "nonsense question", "schema context")
	if !errors.Is(err, ErrNoSQL) {
		t.Fatalf("Translate() error = %v, want ErrNoSQL", err)
	}
	if generated.RawOutput != "I cannot answer that with this schema." {
		t.Errorf("RawOutput = %q, want the raw model reply", generated.RawOutput)
	}
	if generated.SQL != "" {
		t.Errorf("SQL = %q, want empty on ErrNoSQL", generated.SQL)
	}
}

func TestTranslateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(testLLMConfig("openai"))
	client.SetBaseURL(server.URL)

	_, err := client.Translate(context.Background(), "anything", "schema context")
	if err == nil {
		t.Fatal("Translate() expected error on non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestTranslateNotConfigured(t *testing.T) {
	cfg := testLLMConfig("openai")
	cfg.OpenAIAPIKey = ""
	client := NewClient(cfg)

	_, err := client.Translate(context.Background(), "question", "schema context")
	if err == nil {
		t.Fatal("Translate() expected error when not configured")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("error = %v, want 'not configured'", err)
	}
}

func TestTranslateContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testLLMConfig("openai"))
	client.SetBaseURL(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Translate(ctx, "question", "schema context")
	if err == nil {
		t.Fatal("Translate() expected error for cancelled context")
	}
}
