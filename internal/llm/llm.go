// Package llm is a small provider-neutral client for structured LLM output.
// prepcoach uses it to narrate mastery analyses; every call is optional and
// callers fall back to deterministic text on any error.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a response for a Request.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the output is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the resolved model identifier.
	ModelID() string
}

// Request is one generation call.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Prompt builds a single-turn request.
func Prompt(system, user string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: user}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Schema is a named JSON Schema the output must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Stop reasons, normalised across providers.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is the model output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// complete applies the shared post-processing every provider needs:
// truncation and schema checks for structured requests.
func complete(provider string, req Request, resp Response) (*Response, error) {
	if req.Schema != nil {
		if resp.StopReason == StopMaxTokens {
			return nil, &Error{Kind: KindTruncated, Provider: provider, Content: resp.Content}
		}
		if err := validate(req.Schema, resp.Content); err != nil {
			return nil, &Error{Kind: KindInvalidOutput, Provider: provider, Content: resp.Content, Err: err}
		}
	}
	return &resp, nil
}
