package rerankservice

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
)

type fakeProvider struct {
	name   string
	scored []ScoredCandidate
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Rerank(ctx context.Context, req Request) ([]ScoredCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

func newTestCache(t *testing.T) *cacheadapter.Adapter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return cacheadapter.New(cacheadapter.Config{Address: mr.Addr()}, nil, nil)
}

func testDocset() []DocsetEntry {
	return []DocsetEntry{
		{CandidateID: "c1", RationaleInput: "senior go engineer", HybridScore: 0.7},
		{CandidateID: "c2", RationaleInput: "junior go engineer", HybridScore: 0.9},
	}
}

func TestService_Rerank_PrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "anthropic", scored: []ScoredCandidate{{CandidateID: "c1", Score: 0.9, Reason: "best"}}}
	secondary := &fakeProvider{name: "openai"}
	svc := NewService(primary, secondary, newTestCache(t), Config{ModelVersion: "v1", WeightsVersion: "w1"}, nil, nil)

	result := svc.Rerank(context.Background(), Request{TenantID: "t1", JDText: "go engineer", Docset: testDocset()})

	assert.True(t, result.RerankApplied)
	assert.False(t, result.CacheHit)
	assert.Equal(t, "anthropic", result.Provider)
	assert.Equal(t, 0, secondary.calls)
}

func TestService_Rerank_FallsBackToSecondaryOnPrimaryFailure(t *testing.T) {
	primary := &fakeProvider{name: "anthropic", err: &ProviderError{Provider: "anthropic", Class: ErrUpstream5xx, Cause: errors.New("boom")}}
	secondary := &fakeProvider{name: "openai", scored: []ScoredCandidate{{CandidateID: "c2", Score: 0.6, Reason: "ok"}}}
	svc := NewService(primary, secondary, newTestCache(t), Config{ModelVersion: "v1", WeightsVersion: "w1"}, nil, nil)

	result := svc.Rerank(context.Background(), Request{TenantID: "t1", JDText: "go engineer", Docset: testDocset()})

	assert.True(t, result.RerankApplied)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestService_Rerank_TotalFailureKeepsInputOrder(t *testing.T) {
	cause := errors.New("boom")
	primary := &fakeProvider{name: "anthropic", err: &ProviderError{Provider: "anthropic", Class: ErrUpstream5xx, Cause: cause}}
	secondary := &fakeProvider{name: "openai", err: &ProviderError{Provider: "openai", Class: ErrUpstream5xx, Cause: cause}}
	svc := NewService(primary, secondary, newTestCache(t), Config{ModelVersion: "v1", WeightsVersion: "w1"}, nil, nil)

	result := svc.Rerank(context.Background(), Request{TenantID: "t1", JDText: "go engineer", Docset: testDocset()})

	require.False(t, result.RerankApplied)
	require.Len(t, result.Scored, 2)
	// degraded order keeps the input order: c1 before c2, even though
	// c2 has the higher hybrid score (0.9 vs 0.7)
	assert.Equal(t, "c1", result.Scored[0].CandidateID)
	assert.Equal(t, "c2", result.Scored[1].CandidateID)
}

func TestService_Rerank_CacheHitSkipsProviderCalls(t *testing.T) {
	primary := &fakeProvider{name: "anthropic", scored: []ScoredCandidate{{CandidateID: "c1", Score: 0.9, Reason: "best"}}}
	secondary := &fakeProvider{name: "openai"}
	cache := newTestCache(t)
	svc := NewService(primary, secondary, cache, Config{ModelVersion: "v1", WeightsVersion: "w1"}, nil, nil)

	req := Request{TenantID: "t1", JDText: "go engineer", Docset: testDocset()}
	first := svc.Rerank(context.Background(), req)
	require.True(t, first.RerankApplied)
	require.Equal(t, 1, primary.calls)

	second := svc.Rerank(context.Background(), req)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, primary.calls, "second call should be served from cache, not the provider")
}

func TestService_Rerank_NoProvidersConfiguredDegrades(t *testing.T) {
	svc := NewService(nil, nil, newTestCache(t), Config{}, nil, nil)
	result := svc.Rerank(context.Background(), Request{TenantID: "t1", JDText: "go engineer", Docset: testDocset()})
	assert.False(t, result.RerankApplied)
	require.Len(t, result.Scored, 2)
}
