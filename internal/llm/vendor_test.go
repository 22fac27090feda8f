package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var answerSchema = &Schema{
	Name: "answer-test",
	Definition: map[string]any{
		"type":       "object",
		"properties": map[string]any{"answer": map[string]any{"type": "string"}},
		"required":   []any{"answer"},
	},
}

func serve(t *testing.T, status int, body any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func anthropicAt(t *testing.T, url string) *AnthropicProvider {
	t.Helper()
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test", Model: "claude-haiku"},
		option.WithBaseURL(url), option.WithMaxRetries(0))
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 12, "output_tokens": 8},
	}
}

func TestAnthropicGenerate(t *testing.T) {
	p := anthropicAt(t, serve(t, http.StatusOK, anthropicMessage(`{"answer":"git commit"}`, "end_turn")))
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

	resp, err := p.Generate(context.Background(), Prompt("sys", "q", answerSchema, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"git commit"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 8, TotalTokens: 20}, resp.Usage)
	assert.Equal(t, StopEnd, resp.StopReason)
}

func TestAnthropicErrors(t *testing.T) {
	tests := []struct {
		name  string
		url   func(t *testing.T) string
		check func(t *testing.T, err error)
	}{
		{
			name: "schema violation",
			url: func(t *testing.T) string {
				return serve(t, http.StatusOK, anthropicMessage(`{"other":1}`, "end_turn"))
			},
			check: func(t *testing.T, err error) {
				var e *InvalidResponseError
				assert.True(t, errors.As(err, &e), "%T", err)
			},
		},
		{
			name: "truncated",
			url: func(t *testing.T) string {
				return serve(t, http.StatusOK, anthropicMessage(`{"answer":"gi`, "max_tokens"))
			},
			check: func(t *testing.T, err error) {
				var e *TruncatedError
				assert.True(t, errors.As(err, &e), "%T", err)
			},
		},
		{
			name: "rate limited",
			url: func(t *testing.T) string {
				return serve(t, http.StatusTooManyRequests, map[string]any{
					"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
				})
			},
			check: func(t *testing.T, err error) {
				var e *RateLimitError
				assert.True(t, errors.As(err, &e), "%T", err)
				var apiErr *anthropic.Error
				assert.True(t, errors.As(err, &apiErr))
			},
		},
		{
			name: "server error",
			url: func(t *testing.T) string {
				return serve(t, http.StatusInternalServerError, map[string]any{
					"type": "error", "error": map[string]any{"type": "api_error", "message": "boom"},
				})
			},
			check: func(t *testing.T, err error) {
				var e *UnavailableError
				assert.True(t, errors.As(err, &e), "%T", err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := anthropicAt(t, tt.url(t))
			_, err := p.Generate(context.Background(), Prompt("", "q", answerSchema, 64))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func openaiAt(t *testing.T, url string) *OpenAIProvider {
	t.Helper()
	c := openai.DefaultConfig("test")
	c.BaseURL = url + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(c), model: "gpt-4o-mini", name: "openai"}
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40},
	}
}

func TestOpenAIGenerate(t *testing.T) {
	p := openaiAt(t, serve(t, http.StatusOK, chatCompletion(`{"answer":"docker ps"}`, "stop")))
	resp, err := p.Generate(context.Background(), Prompt("sys", "q", answerSchema, 128))
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"docker ps"}`, string(resp.Content))
	assert.Equal(t, 40, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", resp.Model)

	p = openaiAt(t, serve(t, http.StatusOK, chatCompletion(`{"answer":`, "length")))
	_, err = p.Generate(context.Background(), Prompt("", "q", nil, 5))
	var tr *TruncatedError
	assert.True(t, errors.As(err, &tr))

	p = openaiAt(t, serve(t, http.StatusOK, map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}}))
	_, err = p.Generate(context.Background(), Prompt("", "q", nil, 5))
	var inv *InvalidResponseError
	assert.True(t, errors.As(err, &inv))
}

func TestOpenAIErrors(t *testing.T) {
	p := openaiAt(t, serve(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "slow down", "type": "rate_limit"},
	}))
	_, err := p.Generate(context.Background(), Prompt("", "q", nil, 5))
	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl), "%T %v", err, err)

	p = openaiAt(t, serve(t, http.StatusBadGateway, map[string]any{
		"error": map[string]any{"message": "down", "type": "server"},
	}))
	_, err = p.Generate(context.Background(), Prompt("", "q", nil, 5))
	var un *UnavailableError
	assert.True(t, errors.As(err, &un), "%T %v", err, err)
}

func TestConstructorsRequireKeys(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)
	_, err = NewOpenAIProvider(OpenAIConfig{})
	assert.Error(t, err)
	_, err = NewOpenRouterProvider(OpenRouterConfig{})
	assert.Error(t, err)
	_, err = NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestModelAliases(t *testing.T) {
	oa, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", oa.ModelID())

	or, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "gpt-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-mini", or.ModelID(), "openrouter ids pass through")

	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiAliases))
	assert.Equal(t, "gemini-1.5-pro", resolveModel("gemini-1.5-pro", geminiAliases))
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": float64(5),
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"difficulty": map[string]any{"type": "string", "enum": []any{"Beginner", "Advanced"}},
						"answer":     map[string]any{"type": "integer"},
					},
					"required": []string{"answer"},
				},
			},
		},
	})

	assert.Equal(t, "OBJECT", string(s.Type))
	qs := s.Properties["questions"]
	require.NotNil(t, qs)
	assert.Equal(t, "ARRAY", string(qs.Type))
	require.NotNil(t, qs.MinItems)
	assert.Equal(t, int64(1), *qs.MinItems)
	assert.Equal(t, int64(5), *qs.MaxItems)
	assert.Equal(t, []string{"answer"}, qs.Items.Required)
	assert.Equal(t, []string{"Beginner", "Advanced"}, qs.Items.Properties["difficulty"].Enum)
	assert.Equal(t, "INTEGER", string(qs.Items.Properties["answer"].Type))
}
