package searchorchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
	"github.com/delimatsuo/headhunter-sub008/internal/embedproviders"
	"github.com/delimatsuo/headhunter-sub008/internal/embedservice"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/scoring"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

type fakeEmbedProvider struct{ dims int }

func (f *fakeEmbedProvider) Name() string         { return "fake" }
func (f *fakeEmbedProvider) Dimensions() int      { return f.dims }
func (f *fakeEmbedProvider) ModelVersion() string { return "fake-v1" }
func (f *fakeEmbedProvider) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeEmbedProvider) Embed(ctx context.Context, text string) (embedproviders.Result, error) {
	vec := make([]float32, f.dims)
	return embedproviders.Result{Vector: vec, Provider: "fake", ModelVersion: "fake-v1"}, nil
}

func newTestAdapter(t *testing.T) (*vectorstore.Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { _ = db.Close() })
	sqlxDB := sqlx.NewDb(db, "postgres")
	adapter := vectorstore.New(sqlxDB, vectorstore.Config{Dimensions: 3}, nil, nil)
	return adapter, mock
}

func newTestCacheAdapter(t *testing.T) *cacheadapter.Adapter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return cacheadapter.New(cacheadapter.Config{Address: mr.Addr()}, nil, nil)
}

func TestService_Search_HappyPathAssemblesResponse(t *testing.T) {
	store, mock := newTestAdapter(t)
	mock.ExpectQuery(`SELECT entity_id AS candidate_id, tenant_id,\s+1 - `).
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "tenant_id", "vector_score"}).
			AddRow("c1", "t1", 0.9).
			AddRow("c2", "t1", 0.7))
	mock.ExpectQuery(`SELECT entity_id AS candidate_id, tenant_id,\s+ts_rank`).
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "tenant_id", "text_score"}).
			AddRow("c1", "t1", 0.5))

	embedSvc := embedservice.NewService(&fakeEmbedProvider{dims: 3}, store, nil, nil)
	cache := newTestCacheAdapter(t)

	svc := NewService(Config{EnableMLShadow: false}, store, embedSvc, cache, scoring.NewCalculator(), nil, nil, nil, nil)
	svc.Now = func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }

	resp, err := svc.Search(context.Background(), Request{
		TenantCtx: models.TenantContext{TenantID: "t1"},
		JDText:    "Senior Go backend engineer, Postgres, Kafka",
	})

	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Meta.PipelineMetrics.Stage1Count)
	assert.False(t, resp.Meta.RerankApplied)
	assert.Equal(t, "unavailable", resp.Meta.MLTrajectory)
	assert.False(t, resp.Meta.CacheHit)
}

func TestService_Search_MissingJDTextIsBadInput(t *testing.T) {
	store, _ := newTestAdapter(t)
	embedSvc := embedservice.NewService(&fakeEmbedProvider{dims: 3}, store, nil, nil)
	svc := NewService(Config{}, store, embedSvc, nil, scoring.NewCalculator(), nil, nil, nil, nil)

	_, err := svc.Search(context.Background(), Request{TenantCtx: models.TenantContext{TenantID: "t1"}})
	assert.Error(t, err)
}

func TestService_Search_SecondCallIsServedFromCache(t *testing.T) {
	store, mock := newTestAdapter(t)
	mock.ExpectQuery(`SELECT entity_id AS candidate_id, tenant_id,\s+1 - `).
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "tenant_id", "vector_score"}).AddRow("c1", "t1", 0.9))
	mock.ExpectQuery(`SELECT entity_id AS candidate_id, tenant_id,\s+ts_rank`).
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "tenant_id", "text_score"}))

	embedSvc := embedservice.NewService(&fakeEmbedProvider{dims: 3}, store, nil, nil)
	cache := newTestCacheAdapter(t)
	svc := NewService(Config{}, store, embedSvc, cache, scoring.NewCalculator(), nil, nil, nil, nil)

	req := Request{TenantCtx: models.TenantContext{TenantID: "t1"}, JDText: "Go engineer"}
	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Meta.CacheHit)

	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Meta.CacheHit)
}
