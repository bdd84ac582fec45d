package embedservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/embedproviders"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

type fakeProvider struct {
	name   string
	dims   int
	model  string
	err    error
	called int
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) Dimensions() int      { return f.dims }
func (f *fakeProvider) ModelVersion() string { return f.model }
func (f *fakeProvider) HealthCheck(ctx context.Context) error { return f.err }

func (f *fakeProvider) Embed(ctx context.Context, text string) (embedproviders.Result, error) {
	f.called++
	if f.err != nil {
		return embedproviders.Result{}, f.err
	}
	vec := make([]float32, f.dims)
	for i := range vec {
		vec[i] = 0.1
	}
	return embedproviders.Result{Vector: vec, Provider: f.name, ModelVersion: f.model}, nil
}

func fixedNow() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }

func newTestStore(t *testing.T) (*vectorstore.Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sqlxDB := sqlx.NewDb(db, "postgres")
	adapter := vectorstore.New(sqlxDB, vectorstore.Config{Dimensions: 3}, nil, nil)
	return adapter, mock
}

func testProfile() models.CandidateProfile {
	return models.CandidateProfile{
		Identifier:   "c1",
		DisplayName:  "Jane Doe",
		CurrentTitle: "Senior Engineer",
		Skills:       []models.SkillMention{{Name: "Go"}},
	}
}

func TestService_Upsert_EmbedsAndStoresOnFirstWrite(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(`SELECT text_hash FROM`).
		WithArgs("t1", "c1", "profile").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO`).WillReturnResult(sqlmock.NewResult(1, 1))

	provider := &fakeProvider{name: "primary", dims: 3, model: "v1"}
	svc := NewService(provider, store, nil, nil)
	svc.Now = fixedNow

	result, err := svc.Upsert(context.Background(), UpsertRequest{TenantID: "t1", EntityID: "c1", Profile: testProfile()})

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 3, result.Dimensions)
	assert.Equal(t, 1, provider.called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Upsert_ShortCircuitsOnUnchangedHash(t *testing.T) {
	store, mock := newTestStore(t)
	profile := BuildSearchableProfile(testProfile())
	hash := TextHash(profile.Text)

	mock.ExpectQuery(`SELECT text_hash FROM`).
		WithArgs("t1", "c1", "profile").
		WillReturnRows(sqlmock.NewRows([]string{"text_hash"}).AddRow(hash))

	provider := &fakeProvider{name: "primary", dims: 3, model: "v1"}
	svc := NewService(provider, store, nil, nil)
	svc.Now = fixedNow

	result, err := svc.Upsert(context.Background(), UpsertRequest{TenantID: "t1", EntityID: "c1", Profile: testProfile()})

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, provider.called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Upsert_MissingTenantIsBadInput(t *testing.T) {
	store, _ := newTestStore(t)
	provider := &fakeProvider{name: "primary", dims: 3, model: "v1"}
	svc := NewService(provider, store, nil, nil)

	_, err := svc.Upsert(context.Background(), UpsertRequest{EntityID: "c1", Profile: testProfile()})
	assert.Error(t, err)
}

func TestService_EmbedQuery_ReturnsVector(t *testing.T) {
	store, _ := newTestStore(t)
	provider := &fakeProvider{name: "primary", dims: 3, model: "v1"}
	svc := NewService(provider, store, nil, nil)

	result, err := svc.EmbedQuery(context.Background(), "t1", "senior go engineer")
	require.NoError(t, err)
	assert.Len(t, result.Vector, 3)
	assert.Equal(t, "primary", result.Provider)
}
