// Package models holds the entities shared across every component:
// tenant context, the candidate profile shapes, embedding records, and
// the scoring/rationale structures the orchestrator assembles.
package models

import "time"

// TenantContext is created once per request from gateway-validated
// headers and propagated by value to every downstream call and log
// record. It is never mutated after creation.
type TenantContext struct {
	TenantID  string
	RequestID string
	TraceID   string
	UserID    string
	// CrossTenantAccess is true only for the documented bypass identity;
	// every adapter call logs this flag.
	CrossTenantAccess bool
}

// CandidateProfile is the normalized view of a candidate record the
// core consumes; the external operational store is source of truth.
type CandidateProfile struct {
	Identifier       string
	DisplayName      string
	CurrentTitle     string
	CurrentCompany   string
	Summary          string
	Skills           []SkillMention
	ExperienceYears  float64
	SeniorityLevel   string
	Companies        []string
	Domains          []string
	Keywords         []string
	TitleHistory     []TitleTransition
	LastUpdatedAt    *time.Time
}

// SkillMention is a skill with an optional extraction confidence.
type SkillMention struct {
	Name       string
	Confidence *float64
}

// TitleTransition is one step in a candidate's work history, used by
// the trajectory calculator.
type TitleTransition struct {
	Title     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// SearchableProfile is the canonical, deterministic text serialization
// of a CandidateProfile used both as embedding input and as the BM25
// corpus document. Field order is fixed so identical profiles always
// serialize identically regardless of map iteration order upstream.
type SearchableProfile struct {
	EntityID string
	Text     string
}

// EmbeddingRecord is unique by (TenantID, EntityID, ChunkType).
type EmbeddingRecord struct {
	TenantID     string
	EntityID     string
	ChunkType    string
	Vector       []float32
	ModelVersion string
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TextHash     string
	Metadata     map[string]interface{}
}

// CandidateDocument is one retrieval-stage row: everything Stage 2
// scoring needs about a candidate, without the raw vector payload.
type CandidateDocument struct {
	CandidateID        string
	TenantID           string
	VectorScore        float64
	TextScore          float64
	HybridScore        float64
	AnalysisConfidence float64
	FullName           string
	CurrentTitle       string
	Skills             []string
	ExperienceYears    float64
	Seniority          string
	Companies          []string
	Domains            []string
	Keywords           []string
	TitleKeywords      []string
	UpdatedAt          *time.Time
	TitleHistory       []TitleTransition
}

// SignalScores holds exactly the 8 named signals, each clamped to
// [0,1]; a missing input contributes the 0.5 neutral default rather
// than excluding the candidate.
type SignalScores struct {
	VectorSimilarity   float64 `json:"vectorSimilarity"`
	SkillsExact        float64 `json:"skillsExact"`
	SkillsInferred     float64 `json:"skillsInferred"`
	SeniorityAlignment float64 `json:"seniorityAlignment"`
	RecencyBoost       float64 `json:"recencyBoost"`
	CompanyRelevance   float64 `json:"companyRelevance"`
	TrajectoryFit      float64 `json:"trajectoryFit"`
	Overall            float64 `json:"overall"`
}

// SkillChip is a single rationale skill entry.
type SkillChip struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"` // explicit|inferred
}

// MatchRationale explains why a candidate ranked where it did.
type MatchRationale struct {
	Strengths    []string      `json:"strengths"`
	Concerns     []string      `json:"concerns"`
	SkillChips   []SkillChip   `json:"skillChips"`
	Breakdown    SignalScores  `json:"breakdown"`
	LLMNarrative string        `json:"llmNarrative,omitempty"`
}

// TrajectoryPrediction is the ML service's shadow-mode output.
type TrajectoryPrediction struct {
	NextRole           string `json:"nextRole"`
	NextRoleConfidence float64 `json:"nextRoleConfidence"`
	TenureMonthsMin    int    `json:"tenureMonthsMin"`
	TenureMonthsMax    int    `json:"tenureMonthsMax"`
	Hireability        float64 `json:"hireability"`
	LowConfidence      bool   `json:"lowConfidence"`
	UncertaintyReason  string `json:"uncertaintyReason,omitempty"`
}

// RuleBasedTrajectory is the deterministic trajectory classification
// computed from title history.
type RuleBasedTrajectory struct {
	Direction string // upward|lateral|downward
	Velocity  string // fast|normal|slow
	Type      string // technical_growth|leadership_track|lateral_move|career_pivot
}

// ShadowComparisonRecord logs disagreement between the ML prediction
// and the rule-based trajectory for offline promotion review.
type ShadowComparisonRecord struct {
	Timestamp  time.Time
	CandidateID string
	MLPrediction TrajectoryPrediction
	RuleBased    RuleBasedTrajectory
	AgreementDirection bool
	AgreementVelocity  bool
	AgreementType      bool
}

// CandidateMatch is one entry of the final search response.
type CandidateMatch struct {
	CandidateID   string                `json:"candidateId"`
	Overall       float64               `json:"overall"`
	SignalScores  SignalScores          `json:"signalScores"`
	Rationale     MatchRationale        `json:"rationale"`
	MLTrajectory  *TrajectoryPrediction `json:"mlTrajectory,omitempty"`
}

// PipelineMetrics reports the three-stage funnel counts and latencies.
type PipelineMetrics struct {
	Stage1Count int            `json:"stage1Count"`
	Stage2Count int            `json:"stage2Count"`
	Stage3Count int            `json:"stage3Count"`
	LatenciesMs map[string]int64 `json:"latencies"`
}

// SearchResponseMeta is the meta block of POST /search/hybrid.
type SearchResponseMeta struct {
	EngineVersion   string          `json:"engineVersion"`
	WeightsVersion  string          `json:"weightsVersion"`
	RerankApplied   bool            `json:"rerankApplied"`
	PipelineMetrics PipelineMetrics `json:"pipelineMetrics"`
	MLTrajectory    string          `json:"mlTrajectory"` // healthy|unavailable
	CacheHit        bool            `json:"cacheHit"`
	Degraded        bool            `json:"degraded"`
}

// SearchResponse is the full POST /search/hybrid response body.
type SearchResponse struct {
	Results []CandidateMatch   `json:"results"`
	Meta    SearchResponseMeta `json:"meta"`
}

// RoleType is the coarse classification used to pick a weights row.
type RoleType string

const (
	RoleIC      RoleType = "IC"
	RoleManager RoleType = "Manager"
)

// JDFeatures are the features derived from the job description text
// before Stage 2 scoring runs.
type JDFeatures struct {
	RequiredSkills  []string
	TargetSeniority string
	RequiredDomains []string
	RoleType        RoleType
	RoleTypeReason  string
}
