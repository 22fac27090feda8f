// Package llm talks to hosted language models. Every vendor adapter
// implements Provider; decorators add retries and logging on top.
//
// Callers describe the JSON they expect with a Schema. Adapters pass it to
// the vendor's structured output mode and validate the reply against it
// before returning, so a nil error means Content matches the schema.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider generates a completion for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Role is the author of a message.
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

// Schema names a JSON Schema the reply must satisfy. Name is used as the
// vendor's schema or tool name and as the compile cache key.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single generation call.
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

// Stop reasons reported in Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is a completed generation.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Decode unmarshals the response content into a T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil {
		return v, fmt.Errorf("decode response: nil response")
	}
	if err := json.Unmarshal(resp.Content, &v); err != nil {
		return v, &InvalidResponseError{Content: resp.Content, Err: err}
	}
	return v, nil
}

type purposeKey struct{}

// WithPurpose labels ctx with what the call is for. The label shows up
// in request logs.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

// resolveModel maps a short alias to a vendor model id. Unknown names
// pass through unchanged.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// finish validates content against the request schema and reports a
// truncated reply as an error.
func finish(req Request, resp *Response) (*Response, error) {
	if resp.StopReason == StopMaxTokens {
		return nil, &TruncatedError{Content: resp.Content}
	}
	if err := validate(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}
