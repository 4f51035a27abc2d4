// Package oracle is the transport layer for the external text-generation
// service. It knows nothing about negotiation state; callers own retries.
package oracle

import "context"

// GenerateRequest carries one system+user prompt pair.
type GenerateRequest struct {
	Model           string
	System          string
	User            string
	MaxOutputTokens int
}

// Usage is the service-reported token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is the raw generated text plus usage metadata.
type Generation struct {
	Text  string
	Model string
	Usage Usage
}

// Client sends a prompt pair to the oracle and returns generated text.
// One outbound request per call, no retries; failures propagate immediately.
type Client interface {
	Name() string
	Close() error
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
}
