package embedservice

import (
	"context"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/embedproviders"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

// Clock is overridable in tests for deterministic timestamps.
type Clock func() time.Time

// Service implements the upsert and query-embedding operations.
type Service struct {
	provider embedproviders.Provider
	store    *vectorstore.Adapter
	logger   observability.Logger
	metrics  observability.MetricsClient
	Now      Clock
}

func NewService(provider embedproviders.Provider, store *vectorstore.Adapter, logger observability.Logger, metrics observability.MetricsClient) *Service {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Service{provider: provider, store: store, logger: logger, metrics: metrics, Now: time.Now}
}

// UpsertRequest is the POST /embed/upsert input.
type UpsertRequest struct {
	TenantID  string
	EntityID  string
	ChunkType string
	Profile   models.CandidateProfile
	Metadata  map[string]interface{}
}

// UpsertResult is the POST /embed/upsert output.
type UpsertResult struct {
	EntityID     string
	ModelVersion string
	Provider     string
	Dimensions   int
	Skipped      bool // true when the text hash was unchanged
}

// Upsert normalizes, hashes, conditionally embeds, and stores a
// candidate profile.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (UpsertResult, error) {
	if req.TenantID == "" || req.EntityID == "" {
		return UpsertResult{}, apperrors.New(apperrors.BadInput, "tenantId and entityId are required")
	}

	profile := BuildSearchableProfile(req.Profile)
	if profile.Text == "" {
		return UpsertResult{}, apperrors.New(apperrors.BadInput, "profile normalized to empty text")
	}
	textHash := TextHash(profile.Text)
	chunkType := req.ChunkType
	if chunkType == "" {
		chunkType = "profile"
	}

	if existing, found, err := s.store.ExistingTextHash(ctx, req.TenantID, req.EntityID, chunkType); err != nil {
		s.logger.Warn("failed to look up existing text hash, proceeding to re-embed", map[string]interface{}{
			"tenantId": req.TenantID, "entityId": req.EntityID, "error": err.Error(),
		})
	} else if found && existing == textHash {
		return UpsertResult{EntityID: req.EntityID, Dimensions: s.provider.Dimensions(), Skipped: true}, nil
	}

	start := s.Now()
	result, err := s.provider.Embed(ctx, profile.Text)
	s.metrics.RecordOperation("embedservice", "embed", err == nil, s.Now().Sub(start).Seconds())
	if err != nil {
		return UpsertResult{}, apperrors.Wrap(apperrors.ProviderError, err, "embedding provider failed")
	}
	if len(result.Vector) != s.provider.Dimensions() {
		return UpsertResult{}, apperrors.New(apperrors.SchemaMismatch, "embedding provider returned an unexpected dimension")
	}

	rec := models.EmbeddingRecord{
		TenantID:     req.TenantID,
		EntityID:     req.EntityID,
		ChunkType:    chunkType,
		Vector:       result.Vector,
		ModelVersion: result.ModelVersion,
		Provider:     result.Provider,
		CreatedAt:    s.Now(),
		UpdatedAt:    s.Now(),
		TextHash:     textHash,
		Metadata:     req.Metadata,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return UpsertResult{}, err
	}

	return UpsertResult{
		EntityID:     req.EntityID,
		ModelVersion: result.ModelVersion,
		Provider:     result.Provider,
		Dimensions:   len(result.Vector),
	}, nil
}

// QueryResult is the POST /embed/query output.
type QueryResult struct {
	Vector       []float32
	Provider     string
	ModelVersion string
}

// EmbedQuery embeds free-text search input, used by the Search
// Orchestrator ahead of vector recall.
func (s *Service) EmbedQuery(ctx context.Context, tenantID, text string) (QueryResult, error) {
	if tenantID == "" || text == "" {
		return QueryResult{}, apperrors.New(apperrors.BadInput, "tenantId and text are required")
	}

	start := s.Now()
	result, err := s.provider.Embed(ctx, text)
	s.metrics.RecordOperation("embedservice", "embed_query", err == nil, s.Now().Sub(start).Seconds())
	if err != nil {
		return QueryResult{}, apperrors.Wrap(apperrors.ProviderError, err, "embedding provider failed")
	}
	return QueryResult{Vector: result.Vector, Provider: result.Provider, ModelVersion: result.ModelVersion}, nil
}
