package embedproviders

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the primary provider.
type OpenAIConfig struct {
	APIKey string
	Model  string // e.g. "text-embedding-3-large"
	Dims   int
}

// OpenAIProvider is the primary embedding provider.
type OpenAIProvider struct {
	client openai.Client
	model  openai.EmbeddingModel
	dims   int
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-large"
	}
	dims := cfg.Dims
	if dims == 0 {
		dims = 768
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  openai.EmbeddingModel(model),
		dims:   dims,
	}, nil
}

func (p *OpenAIProvider) Name() string         { return "primary" }
func (p *OpenAIProvider) Dimensions() int      { return p.dims }
func (p *OpenAIProvider) ModelVersion() string { return string(p.model) }

func (p *OpenAIProvider) Embed(ctx context.Context, text string) (Result, error) {
	prepared, err := PrepareText(text)
	if err != nil {
		return Result{}, err
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(prepared)},
		Model:          p.model,
		Dimensions:     openai.Int(int64(p.dims)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return Result{}, classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return Result{}, &ProviderError{Provider: p.Name(), Class: ErrUnavailable, Cause: errors.New("empty embedding response")}
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return Result{Vector: normalizeL2(vec), Provider: p.Name(), ModelVersion: string(p.model)}, nil
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	_, err := p.Embed(ctx, "health check")
	return err
}

// classifyOpenAIError maps a transport/API error to our ErrorClass
// taxonomy so callers can decide whether to retry or fall back.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: "primary", Class: ErrTimeout, Cause: err}
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &ProviderError{Provider: "primary", Class: ErrRateLimited, Cause: err}
		case 400, 422:
			return &ProviderError{Provider: "primary", Class: ErrInvalidInput, Cause: err}
		default:
			return &ProviderError{Provider: "primary", Class: ErrUnavailable, Cause: err}
		}
	}
	return &ProviderError{Provider: "primary", Class: ErrUnavailable, Cause: err}
}
