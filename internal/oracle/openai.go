package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultTemperature = 0.7

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAIClient creates a client for baseURL (".../v1" style, trailing
// slash trimmed). An empty apiKey falls back to the ORACLE_API_KEY env var.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		apiKey = os.Getenv("ORACLE_API_KEY")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         *float64      `json:"temperature,omitempty"`
	MaxTokens           *int          `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int          `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// Generate sends one [system, user] pair. Request shape follows the model's
// capabilities: o1/o3 skip temperature and use max_completion_tokens;
// gpt-4o/gpt-4.5 use max_completion_tokens but keep temperature.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if SupportsTemperature(model) {
		t := defaultTemperature
		body.Temperature = &t
	}
	if req.MaxOutputTokens > 0 {
		n := req.MaxOutputTokens
		if UsesCompletionTokensField(model) {
			body.MaxCompletionTokens = &n
		} else {
			body.MaxTokens = &n
		}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejectionFromBody(resp)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("oracle: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("oracle: empty choices in response")
	}
	gen := &Generation{
		Text:  out.Choices[0].Message.Content,
		Model: out.Model,
		Usage: out.Usage,
	}
	if gen.Model == "" {
		gen.Model = model
	}
	return gen, nil
}

// ValidateCredential issues a models-listing GET with the same
// authorization. 200 means the credential is accepted.
func (c *OpenAIClient) ValidateCredential(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rejectionFromBody(resp)
	}
	return nil
}

// WithCredential returns a copy of the client bound to a different key,
// used when validating a user-supplied credential.
func (c *OpenAIClient) WithCredential(apiKey string) *OpenAIClient {
	clone := *c
	clone.apiKey = apiKey
	return &clone
}

func (c *OpenAIClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func rejectionFromBody(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	const max = 2048
	if len(body) > max {
		body = body[:max]
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return &RejectionError{Status: resp.StatusCode, Message: env.Error.Message}
	}
	return &RejectionError{Status: resp.StatusCode, Message: "unexpected status " + resp.Status}
}
