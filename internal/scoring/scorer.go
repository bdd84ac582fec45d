package scoring

import (
	"sort"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// Calculator holds the configuration a scoring pass needs: the
// transferability graph and the role-type keyword list. Both are plain
// fields a caller may replace; NewCalculator fills them with the
// built-in defaults and nothing loads them from configuration. It
// carries no I/O handles — every ComputeSignals call is
// a pure function of its arguments plus this config.
type Calculator struct {
	Graph            TransferabilityGraph
	RoleTypeKeywords []string
	Now              func() time.Time
}

// NewCalculator builds a Calculator with the default transferability
// graph and role-type keyword set.
func NewCalculator() *Calculator {
	return &Calculator{
		Graph:            DefaultTransferabilityGraph(),
		RoleTypeKeywords: defaultRoleTypeKeywords,
		Now:              time.Now,
	}
}

// ExtractJDFeatures is the Calculator-bound entry point Stage 2 calls
// once per request before scoring any candidate.
func (c *Calculator) ExtractJDFeatures(jdText string) models.JDFeatures {
	return ExtractJDFeatures(jdText, c.Graph, c.RoleTypeKeywords)
}

// ComputeSignals computes all eight signals for one candidate document
// against the JD features, per spec §4.E. vectorSimilarity is carried
// through from Stage 1's recall score, never recomputed here. Missing
// inputs anywhere in this function contribute the 0.5 neutral default
// rather than excluding the candidate — callers never filter a
// candidate out because of a low or neutral score here.
func (c *Calculator) ComputeSignals(jd models.JDFeatures, doc models.CandidateDocument, weights Weights) models.SignalScores {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	traj, ok := ClassifyTrajectory(doc.TitleHistory)

	s := models.SignalScores{
		VectorSimilarity:   clamp01(doc.VectorScore),
		SkillsExact:        skillsExact(jd.RequiredSkills, doc.Skills),
		SkillsInferred:     skillsInferred(jd.RequiredSkills, doc.Skills, c.Graph),
		SeniorityAlignment: seniorityAlignment(jd.TargetSeniority, doc.Seniority),
		RecencyBoost:       recencyBoost(doc.UpdatedAt, now()),
		CompanyRelevance:   companyRelevance(doc.Domains, jd.RequiredDomains),
		TrajectoryFit:      trajectoryFit(traj, ok),
	}
	s.Overall = clamp01(weights.WeightedSum(s))
	return s
}

// companyRelevance is the fraction of the candidate's domains that
// match a JD-required domain/tier; an empty requirement or an empty
// candidate domain list is the 0.5 neutral default (spec §4.E).
func companyRelevance(candidateDomains, requiredDomains []string) float64 {
	if len(requiredDomains) == 0 || len(candidateDomains) == 0 {
		return 0.5
	}
	required := make(map[string]bool, len(requiredDomains))
	for _, d := range requiredDomains {
		required[d] = true
	}
	matched := 0
	for _, d := range candidateDomains {
		if required[d] {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(requiredDomains)))
}

// ScoredCandidate pairs a CandidateDocument with its computed signals
// for sorting and rationale construction downstream.
type ScoredCandidate struct {
	Document models.CandidateDocument
	Signals  models.SignalScores
}

// SortByOverall orders scored candidates by a fixed tie-break chain:
// overall desc, then skillsExact desc, then recencyBoost desc, then
// vectorSimilarity desc, then candidateId lexicographic — fully
// deterministic given identical inputs.
func SortByOverall(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Signals, candidates[j].Signals
		if a.Overall != b.Overall {
			return a.Overall > b.Overall
		}
		if a.SkillsExact != b.SkillsExact {
			return a.SkillsExact > b.SkillsExact
		}
		if a.RecencyBoost != b.RecencyBoost {
			return a.RecencyBoost > b.RecencyBoost
		}
		if a.VectorSimilarity != b.VectorSimilarity {
			return a.VectorSimilarity > b.VectorSimilarity
		}
		return candidates[i].Document.CandidateID < candidates[j].Document.CandidateID
	})
}
