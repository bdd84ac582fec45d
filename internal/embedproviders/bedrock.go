package embedproviders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockConfig configures the secondary (fallback) provider.
type BedrockConfig struct {
	Region  string
	ModelID string // e.g. "amazon.titan-embed-text-v2:0"
	Dims    int
}

// BedrockProvider is the secondary embedding provider, used when the
// primary is unavailable or its circuit breaker is open.
type BedrockProvider struct {
	client  *bedrockruntime.Client
	modelID string
	dims    int
}

type titanEmbeddingRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbeddingResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = "amazon.titan-embed-text-v2:0"
	}
	dims := cfg.Dims
	if dims == 0 {
		dims = 768
	}
	return &BedrockProvider{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
		dims:    dims,
	}, nil
}

func (p *BedrockProvider) Name() string         { return "secondary" }
func (p *BedrockProvider) Dimensions() int      { return p.dims }
func (p *BedrockProvider) ModelVersion() string { return p.modelID }

func (p *BedrockProvider) Embed(ctx context.Context, text string) (Result, error) {
	prepared, err := PrepareText(text)
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(titanEmbeddingRequest{InputText: prepared})
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Class: ErrInvalidInput, Cause: err}
	}

	resp, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return Result{}, classifyBedrockError(err)
	}

	var titanResp titanEmbeddingResponse
	if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Class: ErrUnavailable, Cause: err}
	}
	if len(titanResp.Embedding) == 0 {
		return Result{}, &ProviderError{Provider: p.Name(), Class: ErrUnavailable, Cause: errors.New("empty embedding in bedrock response")}
	}

	return Result{Vector: normalizeL2(titanResp.Embedding), Provider: p.Name(), ModelVersion: p.modelID}, nil
}

func (p *BedrockProvider) HealthCheck(ctx context.Context) error {
	_, err := p.Embed(ctx, "health check")
	return err
}

func classifyBedrockError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ThrottlingException"), strings.Contains(msg, "TooManyRequests"):
		return &ProviderError{Provider: "secondary", Class: ErrRateLimited, Cause: err}
	case strings.Contains(msg, "ModelTimeoutException"), strings.Contains(msg, "RequestTimeout"):
		return &ProviderError{Provider: "secondary", Class: ErrTimeout, Cause: err}
	case strings.Contains(msg, "ValidationException"):
		return &ProviderError{Provider: "secondary", Class: ErrInvalidInput, Cause: err}
	default:
		return &ProviderError{Provider: "secondary", Class: ErrUnavailable, Cause: err}
	}
}
