package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var narrationSchema = &Schema{
	Name: "test-narration",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headline": map[string]any{"type": "string"},
			"body":     map[string]any{"type": "string"},
		},
		"required":             []any{"headline", "body"},
		"additionalProperties": false,
	},
}

func serve(t *testing.T, status int, body any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 40},
	}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicMessage(`{"headline":"Nice work","body":"Keep going."}`, "end_turn"))
	p, err := NewAnthropicProvider(Config{APIKey: "k", BaseURL: url})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Generate(context.Background(), Prompt("coach", "narrate", narrationSchema, 256))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.Total() != 160 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Errorf("stop = %q, want end", resp.StopReason)
	}
}

func TestAnthropicProvider_InvalidOutput(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicMessage(`{"headline":"only"}`, "end_turn"))
	p, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: url})

	_, err := p.Generate(context.Background(), Prompt("", "narrate", narrationSchema, 256))
	if kind, _ := KindOf(err); kind != KindInvalidOutput {
		t.Fatalf("err = %v, want invalid output", err)
	}
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicMessage(`{"headline":"cut`, "max_tokens"))
	p, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: url})

	_, err := p.Generate(context.Background(), Prompt("", "narrate", narrationSchema, 8))
	if kind, _ := KindOf(err); kind != KindTruncated {
		t.Fatalf("err = %v, want truncated", err)
	}
}

func TestAnthropicProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindUnavailable},
	}
	for _, tt := range tests {
		url := serve(t, tt.status, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "nope"},
		})
		p := &AnthropicProvider{
			client: anthropic.NewClient(option.WithAPIKey("k"), option.WithBaseURL(url), option.WithMaxRetries(0)),
			model:  "claude-haiku-4-5-20251001",
		}

		_, err := WithRetry(p, RetryConfig{MaxAttempts: 1}).Generate(context.Background(), Prompt("", "x", nil, 16))
		if kind, _ := KindOf(err); kind != tt.want {
			t.Errorf("status %d: err = %v, want %s", tt.status, err, tt.want)
		}
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	url := serve(t, http.StatusOK, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": `{"headline":"Up","body":"Down"}`},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40},
	})
	p, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: url + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Errorf("model = %q", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), Prompt("coach", "narrate", narrationSchema, 256))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Usage.Total() != 40 {
		t.Errorf("total tokens = %d, want 40", resp.Usage.Total())
	}
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	url := serve(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "slow down", "type": "rate_limit", "code": "rate_limit_exceeded"},
	})
	p, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: url + "/v1"})

	_, err := p.Generate(context.Background(), Prompt("", "x", nil, 16))
	if kind, _ := KindOf(err); kind != KindRateLimited {
		t.Fatalf("err = %v, want rate limited", err)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headline": map[string]any{"type": "string", "description": "short"},
			"tone":     map[string]any{"type": "string", "enum": []any{"warm", "firm"}},
			"tips":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"headline"},
	})

	if s.Type != "OBJECT" {
		t.Fatalf("type = %s, want OBJECT", s.Type)
	}
	if len(s.Properties) != 3 || s.Properties["headline"].Description != "short" {
		t.Errorf("properties = %+v", s.Properties)
	}
	if len(s.Properties["tone"].Enum) != 2 {
		t.Errorf("enum = %v", s.Properties["tone"].Enum)
	}
	if s.Properties["tips"].Items == nil || s.Properties["tips"].Items.Type != "STRING" {
		t.Errorf("items = %+v", s.Properties["tips"].Items)
	}
	if len(s.Required) != 1 {
		t.Errorf("required = %v", s.Required)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct{ provider, in, want string }{
		{"anthropic", "", "claude-haiku-4-5-20251001"},
		{"anthropic", "claude-sonnet", "claude-sonnet-4-20250514"},
		{"openai", "gpt-4.1", "gpt-4.1"},
		{"gemini", "gemini-pro", "gemini-2.0-pro"},
	}
	for _, tt := range tests {
		if got := ResolveModel(tt.provider, tt.in); got != tt.want {
			t.Errorf("ResolveModel(%s, %q) = %q, want %q", tt.provider, tt.in, got, tt.want)
		}
	}
}
