package rerankservice

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the secondary/fallback rerank provider.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// OpenAIProvider is the secondary rerank LLM used when the primary
// (Anthropic) fails or times out (spec §4.F fallback chain).
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "secondary" }

func (p *OpenAIProvider) Rerank(ctx context.Context, req Request) ([]ScoredCandidate, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(rerankSystemPrompt),
			openai.UserMessage(buildRerankPrompt(req)),
		},
	})
	if err != nil {
		return nil, classifyOpenAIRerankError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Class: ErrUpstream5xx, Cause: errors.New("empty choices")}
	}

	scored, err := parseScoredCandidates(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Class: ErrParseFailure, Cause: err}
	}
	return scored, nil
}

func classifyOpenAIRerankError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: "secondary", Class: ErrProviderTimeout, Cause: err}
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &ProviderError{Provider: "secondary", Class: ErrProviderRateLimited, Cause: err}
		default:
			return &ProviderError{Provider: "secondary", Class: ErrUpstream5xx, Cause: err}
		}
	}
	return &ProviderError{Provider: "secondary", Class: ErrUpstream5xx, Cause: err}
}
