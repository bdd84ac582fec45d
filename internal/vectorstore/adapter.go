// Package vectorstore adapts a Postgres+pgvector database behind the
// narrow contract the Search Orchestrator and Embed Service depend on:
// schema verification, upsert, and hybrid (vector+BM25) recall fused
// by Reciprocal Rank Fusion.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
)

// Config describes the schema this adapter expects to find.
type Config struct {
	Schema            string
	Table             string
	Dimensions        int
	EnableAutoMigrate bool
}

func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = "mcp_search"
	}
	if c.Table == "" {
		c.Table = "candidate_embeddings"
	}
	return c
}

// Health is the classification healthCheck() returns.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
)

// Adapter is the Vector Store Adapter (component A).
type Adapter struct {
	db      *sqlx.DB
	cfg     Config
	logger  observability.Logger
	metrics observability.MetricsClient

	mu          sync.RWMutex
	initialized bool
	lastHealth  Health
}

// New wraps an already-open *sqlx.DB (registered with the pgx/v5/stdlib
// driver by the caller) with schema-verification and hybrid-search
// behavior.
func New(db *sqlx.DB, cfg Config, logger observability.Logger, metrics observability.MetricsClient) *Adapter {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Adapter{db: db, cfg: cfg.withDefaults(), logger: logger, metrics: metrics, lastHealth: HealthUnhealthy}
}

// Initialize verifies the pgvector extension, the embeddings table,
// and the configured vector dimension against the live schema. It
// never creates the extension or table itself unless EnableAutoMigrate
// is set — a dimension or schema mismatch is always startup-fatal,
// never silently papered over.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	var extExists bool
	if err := a.db.GetContext(ctx, &extExists,
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`); err != nil {
		a.lastHealth = HealthUnhealthy
		return apperrors.Wrap(apperrors.ServiceUnavailable, err, "failed to check pgvector extension")
	}
	if !extExists {
		if a.cfg.EnableAutoMigrate {
			if err := a.autoMigrate(ctx); err != nil {
				a.lastHealth = HealthUnhealthy
				return apperrors.Wrap(apperrors.SchemaMismatch, err, "auto-migration failed")
			}
		} else {
			a.lastHealth = HealthUnhealthy
			return apperrors.New(apperrors.SchemaMismatch, "pgvector extension is not installed")
		}
	}

	var tableExists bool
	if err := a.db.GetContext(ctx, &tableExists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		a.cfg.Schema, a.cfg.Table); err != nil {
		a.lastHealth = HealthUnhealthy
		return apperrors.Wrap(apperrors.ServiceUnavailable, err, "failed to check embeddings table")
	}
	if !tableExists {
		a.lastHealth = HealthUnhealthy
		return apperrors.New(apperrors.SchemaMismatch,
			fmt.Sprintf("table %s.%s does not exist; run migrations", a.cfg.Schema, a.cfg.Table))
	}

	dim, err := a.columnDimension(ctx)
	if err != nil {
		a.lastHealth = HealthUnhealthy
		return apperrors.Wrap(apperrors.ServiceUnavailable, err, "failed to determine embedding column dimension")
	}
	if dim != 0 && dim != a.cfg.Dimensions {
		a.lastHealth = HealthUnhealthy
		return apperrors.New(apperrors.SchemaMismatch,
			fmt.Sprintf("embedding column dimension %d does not match configured dimension %d", dim, a.cfg.Dimensions))
	}

	a.initialized = true
	a.lastHealth = HealthHealthy
	a.logger.Info("vector store initialized", map[string]interface{}{"schema": a.cfg.Schema, "table": a.cfg.Table})
	return nil
}

// columnDimension introspects the embedding column's declared vector
// dimension via pg_attribute/format_type, returning 0 if it cannot be
// determined (e.g. on drivers without atttypmod support) so callers
// treat an indeterminate dimension as "skip the check" rather than a
// false failure.
func (a *Adapter) columnDimension(ctx context.Context) (int, error) {
	var typmod int
	query := `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = ($1 || '.' || $2)::regclass AND attname = 'embedding'`
	if err := a.db.GetContext(ctx, &typmod, query, a.cfg.Schema, a.cfg.Table); err != nil {
		return 0, nil
	}
	if typmod <= 0 {
		return 0, nil
	}
	return typmod, nil
}

func (a *Adapter) autoMigrate(ctx context.Context) error {
	return runMigrations(ctx, a)
}

// HealthCheck pings the pool and re-verifies schema invariants.
func (a *Adapter) HealthCheck(ctx context.Context) Health {
	a.mu.RLock()
	initialized := a.initialized
	a.mu.RUnlock()

	if !initialized {
		return HealthUnhealthy
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(pingCtx); err != nil {
		a.mu.Lock()
		a.lastHealth = HealthDegraded
		a.mu.Unlock()
		return HealthDegraded
	}
	a.mu.Lock()
	a.lastHealth = HealthHealthy
	a.mu.Unlock()
	return HealthHealthy
}

// Upsert idempotently stores an EmbeddingRecord; the unique constraint
// on (tenantId, entityId, chunkType) serializes concurrent writers and
// ON CONFLICT performs a field-level update, last-writer-wins on
// updatedAt.
func (a *Adapter) Upsert(ctx context.Context, rec models.EmbeddingRecord) error {
	if len(rec.Vector) != a.cfg.Dimensions {
		return apperrors.New(apperrors.SchemaMismatch,
			fmt.Sprintf("embedding has %d dimensions, store requires %d", len(rec.Vector), a.cfg.Dimensions))
	}

	vec := pgvector.NewVector(rec.Vector)
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return apperrors.Wrap(apperrors.BadInput, err, "failed to marshal embedding metadata")
	}
	query := fmt.Sprintf(`
		INSERT INTO %s.%s AS existing (tenant_id, entity_id, chunk_type, embedding, text_hash, updated_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, entity_id, chunk_type) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			text_hash = EXCLUDED.text_hash,
			updated_at = EXCLUDED.updated_at,
			metadata = EXCLUDED.metadata
		WHERE existing.updated_at <= EXCLUDED.updated_at
	`, a.cfg.Schema, a.cfg.Table)

	_, err = a.db.ExecContext(ctx, query, rec.TenantID, rec.EntityID, rec.ChunkType, vec, rec.TextHash, rec.UpdatedAt, metadataJSON)
	if err != nil {
		return apperrors.Wrap(apperrors.ServiceUnavailable, err, "failed to upsert embedding record")
	}
	return nil
}

// ExistingTextHash looks up the stored textHash for (tenantId,
// entityId, chunkType), returning ("", false, nil) when no record
// exists yet. The Embed Service uses this to short-circuit re-embedding
// of unchanged profiles.
func (a *Adapter) ExistingTextHash(ctx context.Context, tenantID, entityID, chunkType string) (string, bool, error) {
	var hash string
	query := fmt.Sprintf(`SELECT text_hash FROM %s.%s WHERE tenant_id = $1 AND entity_id = $2 AND chunk_type = $3`,
		a.cfg.Schema, a.cfg.Table)
	err := a.db.GetContext(ctx, &hash, query, tenantID, entityID, chunkType)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.ServiceUnavailable, err, "failed to look up existing text hash")
	}
	return hash, true, nil
}
