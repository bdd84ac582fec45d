// Package searchorchestrator implements the three-stage hybrid search
// pipeline — parallel retrieval with RRF fusion, deterministic
// 8-signal scoring with optional ML-trajectory shadow mode, and LLM
// rerank of the top-ranked slice — assembled into the final
// SearchResponse with full degraded-mode propagation.
package searchorchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/cacheadapter"
	"github.com/delimatsuo/headhunter-sub008/internal/embedservice"
	"github.com/delimatsuo/headhunter-sub008/internal/mltrajectory"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/observability"
	"github.com/delimatsuo/headhunter-sub008/internal/rerankservice"
	"github.com/delimatsuo/headhunter-sub008/internal/scoring"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

// Config tunes the pipeline's pool sizes and budgets.
type Config struct {
	Stage1PerMethodLimit int
	Stage2TopN           int
	Stage3TopN           int
	MLShadowTopN         int
	EngineVersion        string
	WeightsVersion       string
	HybridCacheTTL       time.Duration
	EnableMLShadow       bool
}

func (c Config) withDefaults() Config {
	if c.Stage1PerMethodLimit <= 0 {
		c.Stage1PerMethodLimit = 300
	}
	if c.Stage2TopN <= 0 {
		c.Stage2TopN = 100
	}
	if c.Stage3TopN <= 0 {
		c.Stage3TopN = 50
	}
	if c.MLShadowTopN <= 0 {
		c.MLShadowTopN = 50
	}
	if c.EngineVersion == "" {
		c.EngineVersion = "v1"
	}
	if c.WeightsVersion == "" {
		c.WeightsVersion = "v1"
	}
	if c.HybridCacheTTL <= 0 {
		c.HybridCacheTTL = 10 * time.Minute
	}
	return c
}

// Service orchestrates the three-stage pipeline.
type Service struct {
	cfg     Config
	store   *vectorstore.Adapter
	embed   *embedservice.Service
	cache   *cacheadapter.Adapter
	scorer  *scoring.Calculator
	ml      *mltrajectory.Client
	rerank  *rerankservice.Service
	logger  observability.Logger
	metrics observability.MetricsClient
	Now     func() time.Time
}

func NewService(
	cfg Config,
	store *vectorstore.Adapter,
	embed *embedservice.Service,
	cache *cacheadapter.Adapter,
	scorer *scoring.Calculator,
	ml *mltrajectory.Client,
	rerank *rerankservice.Service,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *Service {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if scorer == nil {
		scorer = scoring.NewCalculator()
	}
	return &Service{
		cfg: cfg.withDefaults(), store: store, embed: embed, cache: cache,
		scorer: scorer, ml: ml, rerank: rerank, logger: logger, metrics: metrics,
		Now: time.Now,
	}
}

// Request is one POST /search/hybrid input.
type Request struct {
	TenantCtx  models.TenantContext
	JDText     string
	CachePurge bool
	Filters    vectorstore.Filters
}

// Search runs the full three-stage pipeline.
func (s *Service) Search(ctx context.Context, req Request) (models.SearchResponse, error) {
	if req.JDText == "" {
		return models.SearchResponse{}, apperrors.New(apperrors.BadInput, "jdText is required")
	}
	if req.TenantCtx.TenantID == "" {
		return models.SearchResponse{}, apperrors.New(apperrors.BadInput, "tenantId is required")
	}

	metrics := models.PipelineMetrics{LatenciesMs: map[string]int64{}}
	jdHash := hashText(req.JDText)
	cacheKey := jdHash + ":" + s.cfg.WeightsVersion

	if !req.CachePurge && s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheadapter.NamespaceHybrid, req.TenantCtx.TenantID, cacheKey); ok {
			var cached models.SearchResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				cached.Meta.CacheHit = true
				return cached, nil
			}
		}
	}

	stage1Start := s.Now()
	pool, degraded, err := s.runStage1(ctx, req)
	metrics.LatenciesMs["stage1"] = s.Now().Sub(stage1Start).Milliseconds()
	if err != nil {
		return models.SearchResponse{}, err
	}
	metrics.Stage1Count = len(pool)

	stage2Start := s.Now()
	scored, jd, mlStatus := s.runStage2(ctx, req, pool)
	metrics.LatenciesMs["stage2"] = s.Now().Sub(stage2Start).Milliseconds()
	metrics.Stage2Count = len(scored)

	stage3Start := s.Now()
	ordered, rerankApplied := s.runStage3(ctx, req, scored, jd)
	metrics.LatenciesMs["stage3"] = s.Now().Sub(stage3Start).Milliseconds()
	if rerankApplied {
		metrics.Stage3Count = len(ordered)
	}

	response := models.SearchResponse{
		Results: ordered,
		Meta: models.SearchResponseMeta{
			EngineVersion:   s.cfg.EngineVersion,
			WeightsVersion:  s.cfg.WeightsVersion,
			RerankApplied:   rerankApplied,
			PipelineMetrics: metrics,
			MLTrajectory:    mlStatus,
			Degraded:        degraded,
		},
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			s.cache.Set(ctx, cacheadapter.NamespaceHybrid, req.TenantCtx.TenantID, cacheKey, payload, s.cfg.HybridCacheTTL)
		}
	}

	return response, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(text))))
	return hex.EncodeToString(sum[:])
}

// runStage1 embeds the JD as a query and fans out the vector-ANN and
// BM25 recall paths in parallel. It never fails the request outright
// for a degraded vector store: a text-only recall continues with
// degraded=true in the response meta.
func (s *Service) runStage1(ctx context.Context, req Request) ([]models.CandidateDocument, bool, error) {
	var queryVector []float32
	degraded := false

	embedResult, err := s.embed.EmbedQuery(ctx, req.TenantCtx.TenantID, req.JDText)
	if err != nil {
		s.logger.Warn("query embedding failed, falling back to text-only recall", map[string]interface{}{
			"tenantId": req.TenantCtx.TenantID, "error": err.Error(),
		})
		degraded = true
	} else {
		queryVector = embedResult.Vector
	}

	opts := vectorstore.SearchOptions{
		PerMethodLimit: s.cfg.Stage1PerMethodLimit,
		Filters:        req.Filters,
		TextOnly:       degraded,
	}

	pool, err := s.store.HybridSearch(ctx, req.TenantCtx, queryVector, req.JDText, opts)
	if err != nil && !opts.TextOnly {
		s.logger.Warn("hybrid recall failed, retrying with text-only recall", map[string]interface{}{
			"tenantId": req.TenantCtx.TenantID, "error": err.Error(),
		})
		opts.TextOnly = true
		degraded = true
		pool, err = s.store.HybridSearch(ctx, req.TenantCtx, nil, req.JDText, opts)
	}
	if err != nil {
		if s.cache != nil {
			// a stale cache entry is preferable to a hard failure when
			// the store itself is the thing that's down.
			if raw, ok := s.cache.Get(ctx, cacheadapter.NamespaceHybrid, req.TenantCtx.TenantID, hashText(req.JDText)+":"+s.cfg.WeightsVersion); ok {
				var cached models.SearchResponse
				if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
					pool = nil
					for _, m := range cached.Results {
						pool = append(pool, models.CandidateDocument{CandidateID: m.CandidateID, TenantID: req.TenantCtx.TenantID})
					}
					return pool, true, nil
				}
			}
		}
		return nil, false, apperrors.Wrap(apperrors.ServiceUnavailable, err, "vector store unavailable")
	}

	filtered := pool[:0]
	for _, doc := range pool {
		if doc.TenantID != "" && doc.TenantID != req.TenantCtx.TenantID && !req.TenantCtx.CrossTenantAccess {
			continue
		}
		filtered = append(filtered, doc)
	}

	s.logger.Info("stage1 tenant predicate enforced", map[string]interface{}{
		"tenantId":          req.TenantCtx.TenantID,
		"requestId":         req.TenantCtx.RequestID,
		"crossTenantAccess": req.TenantCtx.CrossTenantAccess,
		"poolSize":          len(filtered),
	})

	return filtered, degraded, nil
}

// runStage2 computes the 8 deterministic signals for every Stage 1
// candidate, optionally enriching the top MLShadowTopN with ML
// trajectory predictions (shadow mode: never changes ranking), and
// returns the top Stage2TopN by the tie-break sort.
func (s *Service) runStage2(ctx context.Context, req Request, pool []models.CandidateDocument) ([]scoring.ScoredCandidate, models.JDFeatures, string) {
	jd := s.scorer.ExtractJDFeatures(req.JDText)
	weights := scoring.WeightsFor(jd.RoleType)

	scored := make([]scoring.ScoredCandidate, len(pool))
	for i, doc := range pool {
		scored[i] = scoring.ScoredCandidate{Document: doc, Signals: s.scorer.ComputeSignals(jd, doc, weights)}
	}
	scoring.SortByOverall(scored)

	if len(scored) > s.cfg.Stage2TopN {
		scored = scored[:s.cfg.Stage2TopN]
	}

	mlStatus := "unavailable"
	if s.cfg.EnableMLShadow && s.ml != nil {
		shadowN := s.cfg.MLShadowTopN
		if shadowN > len(scored) {
			shadowN = len(scored)
		}
		ids := make([]string, shadowN)
		for i := 0; i < shadowN; i++ {
			ids[i] = scored[i].Document.CandidateID
		}
		predictions, ok := s.ml.Predict(ctx, req.TenantCtx, ids)
		if ok {
			mlStatus = s.ml.Health()
			s.logShadowComparisons(scored[:shadowN], predictions)
		}
	}

	return scored, jd, mlStatus
}

// logShadowComparisons compares each ML prediction's next role against
// the rule-based trajectory direction and logs one line per candidate
// where they disagree. It computes no aggregate disagreement rate and
// applies no threshold. It never influences ranking, which is why this
// runs after SortByOverall, not before.
func (s *Service) logShadowComparisons(top []scoring.ScoredCandidate, predictions map[string]models.TrajectoryPrediction) {
	for _, sc := range top {
		pred, ok := predictions[sc.Document.CandidateID]
		if !ok {
			continue
		}
		ruleBased, hasRuleBased := scoring.ClassifyTrajectory(sc.Document.TitleHistory)
		if !hasRuleBased {
			continue
		}
		agreementDirection := strings.EqualFold(pred.NextRole, ruleBased.Direction)
		if !agreementDirection {
			s.logger.Info("ml/rule-based trajectory disagreement", map[string]interface{}{
				"candidateId":        sc.Document.CandidateID,
				"mlNextRole":         pred.NextRole,
				"ruleBasedDirection": ruleBased.Direction,
			})
		}
	}
}
