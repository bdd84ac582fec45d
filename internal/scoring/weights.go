// Package scoring implements the deterministic Skills & Trajectory
// Calculators (component E): the eight-signal scorer, the JD feature
// extractor it depends on, and the rule-based trajectory classifier.
// Nothing here performs I/O; it is pure in-process computation over
// already-retrieved CandidateDocument rows, mirroring the teacher's
// own zero-dependency pkg/rag/scoring/scorer.go for this exact kind of
// concern.
package scoring

import "github.com/delimatsuo/headhunter-sub008/internal/models"

// Weights is one role-type's row of the signal-weight table. Fields
// mirror models.SignalScores minus Overall, which is always the
// weighted sum of the rest.
type Weights struct {
	VectorSimilarity   float64
	SkillsExact        float64
	SkillsInferred     float64
	SeniorityAlignment float64
	RecencyBoost       float64
	CompanyRelevance   float64
	TrajectoryFit      float64
}

// icWeights and managerWeights are the required defaults (spec §4.E).
// A WeightsVersion label travels with these in responses and the
// rerank cache key. They are fixed in this package: no configuration
// key overrides them, so changing the table means a code change.
var icWeights = Weights{
	VectorSimilarity:   0.30,
	SkillsExact:        0.25,
	SkillsInferred:     0.10,
	SeniorityAlignment: 0.10,
	RecencyBoost:       0.10,
	CompanyRelevance:   0.05,
	TrajectoryFit:      0.10,
}

var managerWeights = Weights{
	VectorSimilarity:   0.25,
	SkillsExact:        0.20,
	SkillsInferred:     0.10,
	SeniorityAlignment: 0.15,
	RecencyBoost:       0.05,
	CompanyRelevance:   0.10,
	TrajectoryFit:      0.15,
}

// WeightsFor returns the closed-set weights row for a role type,
// defaulting to IC for any unrecognized value rather than failing the
// request.
func WeightsFor(role models.RoleType) Weights {
	if role == models.RoleManager {
		return managerWeights
	}
	return icWeights
}

// WeightedSum computes Σ weight_i · signal_i, used by ComputeSignals
// to derive Overall.
func (w Weights) WeightedSum(s models.SignalScores) float64 {
	return w.VectorSimilarity*s.VectorSimilarity +
		w.SkillsExact*s.SkillsExact +
		w.SkillsInferred*s.SkillsInferred +
		w.SeniorityAlignment*s.SeniorityAlignment +
		w.RecencyBoost*s.RecencyBoost +
		w.CompanyRelevance*s.CompanyRelevance +
		w.TrajectoryFit*s.TrajectoryFit
}
