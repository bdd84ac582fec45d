package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
}

func TestComputeSignals_AllNeutralOnEmptyCandidate(t *testing.T) {
	c := NewCalculator()
	c.Now = fixedNow

	jd := c.ExtractJDFeatures("Senior Go backend engineer, Postgres, Kafka")
	doc := models.CandidateDocument{CandidateID: "c5", VectorScore: 0.42}

	signals := c.ComputeSignals(jd, doc, WeightsFor(jd.RoleType))

	assert.Equal(t, 0.42, signals.VectorSimilarity)
	assert.Equal(t, 0.5, signals.SkillsExact)
	assert.Equal(t, 0.5, signals.SkillsInferred)
	assert.Equal(t, 0.5, signals.SeniorityAlignment)
	assert.Equal(t, 0.5, signals.RecencyBoost)
	assert.Equal(t, 0.5, signals.CompanyRelevance)
	assert.Equal(t, 0.5, signals.TrajectoryFit)
	assert.False(t, hasNaN(signals))
}

func TestComputeSignals_OverallMatchesWeightedSumWithinTolerance(t *testing.T) {
	c := NewCalculator()
	c.Now = fixedNow
	jd := c.ExtractJDFeatures("Senior Go backend engineer, Postgres, Kafka")
	weights := WeightsFor(jd.RoleType)

	doc := models.CandidateDocument{
		CandidateID:     "c1",
		VectorScore:     0.9,
		Skills:          []string{"go", "postgresql", "kafka"},
		Seniority:       "senior",
		ExperienceYears: 8,
	}
	signals := c.ComputeSignals(jd, doc, weights)

	expected := weights.WeightedSum(signals)
	assert.InDelta(t, expected, signals.Overall, 1e-6)
}

func TestComputeSignals_AliasNormalizationMatchesSkills(t *testing.T) {
	c := NewCalculator()
	c.Now = fixedNow
	jd := models.JDFeatures{RequiredSkills: []string{"golang", "postgres"}, RoleType: models.RoleIC}

	doc := models.CandidateDocument{CandidateID: "c1", Skills: []string{"go", "postgresql"}}
	signals := c.ComputeSignals(jd, doc, WeightsFor(jd.RoleType))
	assert.Equal(t, 1.0, signals.SkillsExact)
}

func TestComputeSignals_InferredExcludesExactMatches(t *testing.T) {
	c := NewCalculator()
	c.Now = fixedNow
	jd := models.JDFeatures{RequiredSkills: []string{"kubernetes", "docker"}, RoleType: models.RoleIC}

	// Candidate has docker explicitly; kubernetes only reachable via
	// the transferability graph from docker.
	doc := models.CandidateDocument{CandidateID: "c1", Skills: []string{"docker"}}
	signals := c.ComputeSignals(jd, doc, WeightsFor(jd.RoleType))

	assert.InDelta(t, 0.5, signals.SkillsExact, 1e-9) // 1 of 2 exact
	assert.InDelta(t, 0.5, signals.SkillsInferred, 1e-9) // kubernetes inferred, docker already exact
}

func TestSeniorityAlignment_UnknownIsNeutral(t *testing.T) {
	assert.Equal(t, 0.5, seniorityAlignment("senior", "not-a-real-title"))
	assert.Equal(t, 0.5, seniorityAlignment("", "senior"))
}

func TestSeniorityAlignment_ExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, seniorityAlignment("senior", "senior"))
}

func TestRecencyBoost_Tiers(t *testing.T) {
	now := fixedNow()
	recent := now.Add(-30 * 24 * time.Hour)
	mid := now.Add(-200 * 24 * time.Hour)
	old := now.Add(-600 * 24 * time.Hour)

	assert.Equal(t, 1.0, recencyBoost(&recent, now))
	assert.Equal(t, 0.7, recencyBoost(&mid, now))
	assert.Equal(t, 0.4, recencyBoost(&old, now))
	assert.Equal(t, 0.5, recencyBoost(nil, now))
}

func TestClassifyTrajectory_InsufficientHistoryIsMissing(t *testing.T) {
	_, ok := ClassifyTrajectory(nil)
	assert.False(t, ok)
	_, ok = ClassifyTrajectory([]models.TitleTransition{{Title: "Engineer"}})
	assert.False(t, ok)
}

func TestClassifyTrajectory_UpwardTechnicalGrowth(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := start.AddDate(2, 0, 0)
	end := start.AddDate(4, 0, 0)
	history := []models.TitleTransition{
		{Title: "Software Engineer", StartedAt: start, EndedAt: &mid},
		{Title: "Senior Software Engineer", StartedAt: mid, EndedAt: &end},
		{Title: "Staff Engineer", StartedAt: end},
	}
	traj, ok := ClassifyTrajectory(history)
	require.True(t, ok)
	assert.Equal(t, "upward", traj.Direction)
	assert.Equal(t, "technical_growth", traj.Type)
}

func TestClassifyTrajectory_VelocityFallsBackToNormalOnZeroDuration(t *testing.T) {
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []models.TitleTransition{
		{Title: "Engineer", StartedAt: same, EndedAt: &same},
		{Title: "Senior Engineer", StartedAt: same},
	}
	traj, ok := ClassifyTrajectory(history)
	require.True(t, ok)
	assert.Equal(t, "normal", traj.Velocity)
}

func TestSortByOverall_TieBreakChain(t *testing.T) {
	candidates := []ScoredCandidate{
		{Document: models.CandidateDocument{CandidateID: "zeta"}, Signals: models.SignalScores{Overall: 0.8, SkillsExact: 0.5, RecencyBoost: 0.5, VectorSimilarity: 0.5}},
		{Document: models.CandidateDocument{CandidateID: "alpha"}, Signals: models.SignalScores{Overall: 0.8, SkillsExact: 0.5, RecencyBoost: 0.5, VectorSimilarity: 0.5}},
		{Document: models.CandidateDocument{CandidateID: "beta"}, Signals: models.SignalScores{Overall: 0.9}},
	}
	SortByOverall(candidates)
	require.Len(t, candidates, 3)
	assert.Equal(t, "beta", candidates[0].Document.CandidateID)
	assert.Equal(t, "alpha", candidates[1].Document.CandidateID)
	assert.Equal(t, "zeta", candidates[2].Document.CandidateID)
}

func TestExtractJDFeatures_RoleTypeClassification(t *testing.T) {
	c := NewCalculator()
	jd := c.ExtractJDFeatures("Engineering Manager with Go and Kubernetes experience")
	assert.Equal(t, models.RoleManager, jd.RoleType)
	assert.Contains(t, jd.RoleTypeReason, "manager")

	jd2 := c.ExtractJDFeatures("Senior Go backend engineer, Postgres, Kafka")
	assert.Equal(t, models.RoleIC, jd2.RoleType)
}

func hasNaN(s models.SignalScores) bool {
	vals := []float64{s.VectorSimilarity, s.SkillsExact, s.SkillsInferred, s.SeniorityAlignment, s.RecencyBoost, s.CompanyRelevance, s.TrajectoryFit, s.Overall}
	for _, v := range vals {
		if v != v {
			return true
		}
	}
	return false
}
