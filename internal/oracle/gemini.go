package oracle

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

var errEmptyCandidates = errors.New("oracle: empty candidates from model")

// GeminiClient is a thin wrapper around the official genai client, used as
// the alternate oracle provider.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.User}}}}, cfg)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errEmptyCandidates
	}
	gen := &Generation{Text: resp.Candidates[0].Content.Parts[0].Text, Model: model}
	if u := resp.UsageMetadata; u != nil {
		gen.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return gen, nil
}
