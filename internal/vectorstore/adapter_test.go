package vectorstore

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
)

func newAdapterWithMock(t *testing.T, cfg Config) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB, cfg, nil, nil), mock
}

func TestInitialize_HappyPathMarksHealthy(t *testing.T) {
	a, mock := newAdapterWithMock(t, Config{Schema: "mcp_search", Table: "candidate_embeddings", Dimensions: 768})

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("pg_attribute").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(768))

	err := a.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthHealthy, a.HealthCheck(context.Background()))
}

func TestInitialize_MissingExtensionWithoutAutoMigrateIsSchemaMismatch(t *testing.T) {
	a, mock := newAdapterWithMock(t, Config{Schema: "mcp_search", Table: "candidate_embeddings", Dimensions: 768})

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := a.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.SchemaMismatch, apperrors.Classify(err))
}

func TestInitialize_DimensionMismatchIsSchemaMismatch(t *testing.T) {
	a, mock := newAdapterWithMock(t, Config{Schema: "mcp_search", Table: "candidate_embeddings", Dimensions: 768})

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("pg_attribute").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(384))

	err := a.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.SchemaMismatch, apperrors.Classify(err))
}

func TestInitialize_SecondCallIsNoop(t *testing.T) {
	a, mock := newAdapterWithMock(t, Config{Schema: "mcp_search", Table: "candidate_embeddings", Dimensions: 768})

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("pg_attribute").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(768))

	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Initialize(context.Background()))
}
