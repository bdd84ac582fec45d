package scoring

import (
	"sort"
	"strings"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// skillAliases normalizes common synonyms before matching so "golang"
// and "go", or "k8s" and "kubernetes", count as the same requirement.
// This is intentionally a small closed set, not a fuzzy matcher —
// spec §4.E calls only for "alias normalization," not similarity
// scoring.
var skillAliases = map[string]string{
	"golang":     "go",
	"k8s":        "kubernetes",
	"js":         "javascript",
	"ts":         "typescript",
	"postgres":   "postgresql",
	"pg":         "postgresql",
	"py":         "python",
	"node":       "nodejs",
	"node.js":    "nodejs",
	"gcp":        "google cloud",
	"aws":        "amazon web services",
	"ml":         "machine learning",
	"ai":         "artificial intelligence",
	"react.js":   "react",
	"postgre":    "postgresql",
}

func normalizeSkill(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := skillAliases[n]; ok {
		return alias
	}
	return n
}

// TransferabilityGraph maps a known skill to the inferred skills it
// implies, each with a per-edge weight ≤1 (spec §4.E). It is a closed
// set configured at startup, not learned at request time.
type TransferabilityGraph map[string]map[string]float64

// DefaultTransferabilityGraph is a small, hand-authored closed graph
// covering adjacent-technology transferability in the backend/platform
// space this scorer is exercised against. It is not loaded from
// configuration; a different graph is supplied by setting
// Calculator.Graph in code.
func DefaultTransferabilityGraph() TransferabilityGraph {
	return TransferabilityGraph{
		"kubernetes": {"docker": 0.7, "helm": 0.6, "containerization": 0.8},
		"docker":     {"kubernetes": 0.6, "containerization": 0.9},
		"postgresql": {"mysql": 0.6, "sql": 0.9, "database design": 0.7},
		"mysql":      {"postgresql": 0.6, "sql": 0.9},
		"kafka":      {"rabbitmq": 0.5, "messaging": 0.8, "event-driven architecture": 0.7},
		"grpc":       {"rest": 0.6, "protobuf": 0.8},
		"react":      {"vue": 0.5, "frontend": 0.8, "javascript": 0.7},
		"go":         {"rust": 0.4, "c": 0.4, "systems programming": 0.6},
		"python":     {"go": 0.3, "scripting": 0.7},
		"leadership": {"hiring": 0.6, "mentoring": 0.7, "people management": 0.9},
	}
}

// skillsExact is the fraction of required skills present verbatim
// (after alias normalization) in the candidate's skill set. An empty
// required set is itself a neutral 0.5, never a perfect or zero score.
func skillsExact(required []string, candidateSkills []string) float64 {
	if len(required) == 0 || len(candidateSkills) == 0 {
		return 0.5
	}
	have := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		have[normalizeSkill(s)] = true
	}
	matched := 0
	for _, r := range required {
		if have[normalizeSkill(r)] {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(required)))
}

// skillsInferred is the fraction of required skills reachable from the
// candidate's explicit skills via the transferability graph, excluding
// required skills already counted by skillsExact (exact subsumes
// inferred, per spec §4.E).
func skillsInferred(required []string, candidateSkills []string, graph TransferabilityGraph) float64 {
	if len(required) == 0 || len(candidateSkills) == 0 {
		return 0.5
	}
	have := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		have[normalizeSkill(s)] = true
	}

	reachable := make(map[string]bool, len(candidateSkills)*2)
	for s := range have {
		reachable[s] = true
		for implied := range graph[s] {
			reachable[implied] = true
		}
	}

	matched := 0
	for _, r := range required {
		norm := normalizeSkill(r)
		if have[norm] {
			continue // exact already counted this requirement elsewhere
		}
		if reachable[norm] {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(required)))
}

// BuildSkillChips produces the rationale's skillChips: every required
// skill the candidate has, tagged explicit (verbatim match) or
// inferred (reachable via the transferability graph only), sorted for
// deterministic output.
func BuildSkillChips(required []string, candidate []models.SkillMention, graph TransferabilityGraph) []models.SkillChip {
	byNorm := make(map[string]models.SkillMention, len(candidate))
	for _, m := range candidate {
		byNorm[normalizeSkill(m.Name)] = m
	}

	reachable := make(map[string]bool, len(byNorm)*2)
	for n := range byNorm {
		for implied := range graph[n] {
			reachable[implied] = true
		}
	}

	chips := make([]models.SkillChip, 0, len(required))
	for _, r := range required {
		norm := normalizeSkill(r)
		if m, ok := byNorm[norm]; ok {
			confidence := 1.0
			if m.Confidence != nil {
				confidence = *m.Confidence
			}
			chips = append(chips, models.SkillChip{Name: r, Confidence: clamp01(confidence), Source: "explicit"})
		} else if reachable[norm] {
			chips = append(chips, models.SkillChip{Name: r, Confidence: 0.5, Source: "inferred"})
		}
	}
	sort.Slice(chips, func(i, j int) bool { return chips[i].Name < chips[j].Name })
	return chips
}
