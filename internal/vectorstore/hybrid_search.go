package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// rrfK is the Reciprocal Rank Fusion constant for combining the
// vector-ANN and BM25 recall paths: score += 1/(k+rank).
const rrfK = 60

// Filters narrows hybridSearch results; both fields are optional.
type Filters struct {
	Locations []string
	Seniority []string
}

// SearchOptions controls one hybridSearch call.
type SearchOptions struct {
	PerMethodLimit int
	Filters        Filters
	// VectorOnly/TextOnly degrade recall to a single path when the
	// other is unavailable.
	VectorOnly bool
	TextOnly   bool
}

// HybridSearch fans the vector-ANN and BM25 recall paths out in
// parallel via errgroup, then fuses them via RRF with k=60, returning a
// deduplicated pool sorted by fused score. A failure on one path
// cancels the other through the errgroup's shared context.
func (a *Adapter) HybridSearch(ctx context.Context, tenantCtx models.TenantContext, queryVector []float32, queryText string, opts SearchOptions) ([]models.CandidateDocument, error) {
	if opts.PerMethodLimit <= 0 {
		opts.PerMethodLimit = 300
	}

	var vectorRanked, textRanked []models.CandidateDocument
	g, gctx := errgroup.WithContext(ctx)

	if !opts.TextOnly {
		g.Go(func() error {
			var err error
			vectorRanked, err = a.vectorRecall(gctx, tenantCtx, queryVector, opts)
			return err
		})
	}
	if !opts.VectorOnly {
		g.Go(func() error {
			var err error
			textRanked, err = a.textRecall(gctx, tenantCtx, queryText, opts)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuseRRF(vectorRanked, textRanked), nil
}

func (a *Adapter) vectorRecall(ctx context.Context, tenantCtx models.TenantContext, queryVector []float32, opts SearchOptions) ([]models.CandidateDocument, error) {
	vec := pgvector.NewVector(queryVector)
	query := fmt.Sprintf(`
		SELECT entity_id AS candidate_id, tenant_id,
		       1 - (embedding <=> $1) AS vector_score
		FROM %s.%s
		WHERE tenant_id = $2 OR $2 = '*'
		ORDER BY embedding <=> $1
		LIMIT $3
	`, a.cfg.Schema, a.cfg.Table)

	tenantPredicate := tenantCtx.TenantID
	if tenantCtx.CrossTenantAccess {
		tenantPredicate = "*"
	}

	rows, err := a.db.QueryxContext(ctx, query, vec, tenantPredicate, opts.PerMethodLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, err, "vector recall failed")
	}
	defer rows.Close()

	var docs []models.CandidateDocument
	for rows.Next() {
		var d models.CandidateDocument
		if err := rows.Scan(&d.CandidateID, &d.TenantID, &d.VectorScore); err != nil {
			return nil, apperrors.Wrap(apperrors.Degraded, err, "vector recall scan failed")
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (a *Adapter) textRecall(ctx context.Context, tenantCtx models.TenantContext, queryText string, opts SearchOptions) ([]models.CandidateDocument, error) {
	query := fmt.Sprintf(`
		SELECT entity_id AS candidate_id, tenant_id,
		       ts_rank(to_tsvector('english', coalesce(metadata->>'searchable_text', '')), plainto_tsquery('english', $1)) AS text_score
		FROM %s.%s
		WHERE (tenant_id = $2 OR $2 = '*')
		  AND to_tsvector('english', coalesce(metadata->>'searchable_text', '')) @@ plainto_tsquery('english', $1)
		ORDER BY text_score DESC
		LIMIT $3
	`, a.cfg.Schema, a.cfg.Table)

	tenantPredicate := tenantCtx.TenantID
	if tenantCtx.CrossTenantAccess {
		tenantPredicate = "*"
	}

	rows, err := a.db.QueryxContext(ctx, query, queryText, tenantPredicate, opts.PerMethodLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, err, "text recall failed")
	}
	defer rows.Close()

	var docs []models.CandidateDocument
	for rows.Next() {
		var d models.CandidateDocument
		if err := rows.Scan(&d.CandidateID, &d.TenantID, &d.TextScore); err != nil {
			return nil, apperrors.Wrap(apperrors.Degraded, err, "text recall scan failed")
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// fuseRRF combines two already-ranked result sets into one pool,
// deduplicated by CandidateID, with HybridScore = sum over the lists
// the candidate appears in of 1/(rrfK + rank). This mirrors the
// teacher's reciprocalRankFusion in pkg/rag/retrieval/hybrid.go.
func fuseRRF(vectorRanked, textRanked []models.CandidateDocument) []models.CandidateDocument {
	combined := make(map[string]*models.CandidateDocument)

	addRanked := func(docs []models.CandidateDocument) {
		for rank, doc := range docs {
			existing, ok := combined[doc.CandidateID]
			if !ok {
				d := doc
				combined[doc.CandidateID] = &d
				existing = combined[doc.CandidateID]
			}
			existing.HybridScore += 1.0 / float64(rrfK+rank+1)
			if doc.VectorScore != 0 {
				existing.VectorScore = doc.VectorScore
			}
			if doc.TextScore != 0 {
				existing.TextScore = doc.TextScore
			}
		}
	}

	addRanked(vectorRanked)
	addRanked(textRanked)

	out := make([]models.CandidateDocument, 0, len(combined))
	for _, d := range combined {
		out = append(out, *d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].HybridScore != out[j].HybridScore {
			return out[i].HybridScore > out[j].HybridScore
		}
		return out[i].CandidateID < out[j].CandidateID
	})

	return out
}
