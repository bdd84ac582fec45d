package searchorchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/rerankservice"
	"github.com/delimatsuo/headhunter-sub008/internal/scoring"
)

// runStage3 builds a rerank docset from the Stage 2 top-N, calls the
// Rerank Service, and reorders the slice by its returned scores; on
// disabled/failed rerank it keeps Stage 2 order with rerankApplied
// false.
func (s *Service) runStage3(ctx context.Context, req Request, scored []scoring.ScoredCandidate, jd models.JDFeatures) ([]models.CandidateMatch, bool) {
	if len(scored) > s.cfg.Stage3TopN {
		scored = scored[:s.cfg.Stage3TopN]
	}

	rerankApplied := false
	var order map[string]int

	if s.rerank != nil && len(scored) > 0 {
		docset := make([]rerankservice.DocsetEntry, len(scored))
		for i, sc := range scored {
			docset[i] = rerankservice.DocsetEntry{
				CandidateID:    sc.Document.CandidateID,
				RationaleInput: rationaleInput(sc.Document),
				HybridScore:    sc.Signals.Overall,
			}
		}

		result := s.rerank.Rerank(ctx, rerankservice.Request{
			TenantID: req.TenantCtx.TenantID,
			JDText:   req.JDText,
			Docset:   docset,
		})

		if result.RerankApplied {
			rerankApplied = true
			order = make(map[string]int, len(result.Scored))
			for i, sc := range result.Scored {
				order[sc.CandidateID] = i
			}
		}
	}

	if order != nil {
		sort.SliceStable(scored, func(i, j int) bool {
			oi, oki := order[scored[i].Document.CandidateID]
			oj, okj := order[scored[j].Document.CandidateID]
			if oki && okj {
				return oi < oj
			}
			return oki
		})
	}

	matches := make([]models.CandidateMatch, len(scored))
	for i, sc := range scored {
		matches[i] = buildMatch(sc, jd)
	}
	return matches, rerankApplied
}

// rationaleInput builds the minimal rerank prompt fragment for one
// candidate: title, top skills, and a summary fragment.
func rationaleInput(doc models.CandidateDocument) string {
	skills := doc.Skills
	if len(skills) > 8 {
		skills = skills[:8]
	}
	return fmt.Sprintf("%s — %s. Skills: %s. %d years experience.",
		doc.FullName, doc.CurrentTitle, strings.Join(skills, ", "), int(doc.ExperienceYears))
}

// buildMatch assembles a CandidateMatch: the signal breakdown, skill
// chips, and strengths/concerns derived from the highest/lowest
// contributing signals.
func buildMatch(sc scoring.ScoredCandidate, jd models.JDFeatures) models.CandidateMatch {
	chips := scoring.BuildSkillChips(jd.RequiredSkills, skillMentions(sc.Document.Skills), scoring.DefaultTransferabilityGraph())

	return models.CandidateMatch{
		CandidateID:  sc.Document.CandidateID,
		Overall:      sc.Signals.Overall,
		SignalScores: sc.Signals,
		Rationale: models.MatchRationale{
			Strengths:  topSignals(sc.Signals, true),
			Concerns:   topSignals(sc.Signals, false),
			SkillChips: chips,
			Breakdown:  sc.Signals,
		},
	}
}

func skillMentions(names []string) []models.SkillMention {
	out := make([]models.SkillMention, len(names))
	for i, n := range names {
		out[i] = models.SkillMention{Name: n}
	}
	return out
}

type namedSignal struct {
	name  string
	value float64
}

// topSignals returns the two highest (strengths=true) or lowest
// (strengths=false) named signals, excluding "overall" itself, as
// human-readable rationale strings.
func topSignals(s models.SignalScores, strengths bool) []string {
	signals := []namedSignal{
		{"vector similarity", s.VectorSimilarity},
		{"exact skill match", s.SkillsExact},
		{"inferred skill match", s.SkillsInferred},
		{"seniority alignment", s.SeniorityAlignment},
		{"recency", s.RecencyBoost},
		{"company/domain relevance", s.CompanyRelevance},
		{"trajectory fit", s.TrajectoryFit},
	}
	sort.Slice(signals, func(i, j int) bool {
		if strengths {
			return signals[i].value > signals[j].value
		}
		return signals[i].value < signals[j].value
	})

	out := make([]string, 0, 2)
	for _, sig := range signals[:2] {
		out = append(out, fmt.Sprintf("%s (%.2f)", sig.name, sig.value))
	}
	return out
}
