package rerankservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures the primary rerank provider.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicProvider is the primary rerank LLM (spec §4.F).
type AnthropicProvider struct {
	sdk   anthropic.Client
	model string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &AnthropicProvider{
		sdk:   anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model: model,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Rerank(ctx context.Context, req Request) ([]ScoredCandidate, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 2048,
		System:    []anthropic.TextBlockParam{{Text: rerankSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildRerankPrompt(req))),
		},
	})
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	scored, err := parseScoredCandidates(text.String())
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Class: ErrParseFailure, Cause: err}
	}
	return scored, nil
}

const rerankSystemPrompt = `You rank job candidates against a job description. ` +
	`Given the job description and a list of candidates with short rationale ` +
	`snippets, return ONLY a JSON array, no prose, of objects ` +
	`{"candidateId": string, "score": number between 0 and 1, "reason": string}. ` +
	`Include every candidateId exactly once, ordered best match first.`

func buildRerankPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(req.JDText)
	b.WriteString("\n\nCandidates:\n")
	for _, d := range req.Docset {
		fmt.Fprintf(&b, "- id=%s: %s\n", d.CandidateID, d.RationaleInput)
	}
	return b.String()
}

func classifyAnthropicError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: "anthropic", Class: ErrProviderTimeout, Cause: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return &ProviderError{Provider: "anthropic", Class: ErrProviderRateLimited, Cause: err}
		case apiErr.StatusCode >= 500:
			return &ProviderError{Provider: "anthropic", Class: ErrUpstream5xx, Cause: err}
		}
	}
	return &ProviderError{Provider: "anthropic", Class: ErrUpstream5xx, Cause: err}
}
