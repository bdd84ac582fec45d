package embedproviders

import "context"

// LocalProvider is a deterministic, dependency-free embedding provider
// for local development and tests. It never calls a network service;
// it hashes the input text into a fixed-dimension vector so the rest
// of the pipeline (recall, fusion, scoring) is exercisable end to end
// without provider credentials.
type LocalProvider struct {
	dims int
}

func NewLocalProvider(dims int) *LocalProvider {
	if dims <= 0 {
		dims = 768
	}
	return &LocalProvider{dims: dims}
}

func (p *LocalProvider) Name() string         { return "local" }
func (p *LocalProvider) Dimensions() int      { return p.dims }
func (p *LocalProvider) ModelVersion() string { return "local-hash-v1" }

func (p *LocalProvider) Embed(_ context.Context, text string) (Result, error) {
	prepared, err := PrepareText(text)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Vector:       deterministicVector(prepared, p.dims),
		Provider:     p.Name(),
		ModelVersion: p.ModelVersion(),
	}, nil
}

func (p *LocalProvider) HealthCheck(_ context.Context) error {
	return nil
}
