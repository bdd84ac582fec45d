package scoring

import (
	"regexp"
	"strings"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// roleTypeKeywords classifies a JD as targeting a Manager role.
// Spec §9 Open Question 1 leaves these thresholds heuristic and
// requires they be configurable and logged, not hardcoded silently —
// Calculator.RoleTypeKeywords (scorer.go) is the field that carries
// the list; this is only the default, and no configuration key sets it.
var defaultRoleTypeKeywords = []string{"lead", "manager", "director", "head of", "vp", "chief"}

// knownSeniorityWords lets ExtractJDFeatures recognize a target
// seniority mentioned in free text without a structured field.
var knownSeniorityWords = []string{"intern", "junior", "mid", "senior", "staff", "principal", "director", "c-level", "chief"}

var tokenRe = regexp.MustCompile(`[a-zA-Z0-9+.#]+`)

// ExtractJDFeatures derives the Stage 2 JD features (spec §4.H step
// 1): required skills expanded via the transferability graph's known
// vocabulary, a target seniority guess from keyword scan, and a
// role-type classification with its reason string (returned in
// RoleTypeReason, not logged here).
func ExtractJDFeatures(jdText string, graph TransferabilityGraph, roleTypeKeywords []string) models.JDFeatures {
	if len(roleTypeKeywords) == 0 {
		roleTypeKeywords = defaultRoleTypeKeywords
	}
	lower := strings.ToLower(jdText)

	required := extractKnownSkills(lower, graph)
	seniority := extractSeniority(lower)
	roleType, reason := classifyRoleType(lower, roleTypeKeywords)

	return models.JDFeatures{
		RequiredSkills:  required,
		TargetSeniority: seniority,
		RequiredDomains: extractDomains(lower),
		RoleType:        roleType,
		RoleTypeReason:  reason,
	}
}

// extractKnownSkills scans the JD text for any skill name that appears
// as a graph node or alias, i.e. a vocabulary the scorer already knows
// how to match against. This deliberately does not attempt NLP
// extraction of arbitrary noun phrases — the transferability graph is
// a closed set, and so is the vocabulary Stage 2 can score against.
func extractKnownSkills(lowerJD string, graph TransferabilityGraph) []string {
	vocab := make(map[string]bool)
	for skill := range graph {
		vocab[skill] = true
		for implied := range graph[skill] {
			vocab[implied] = true
		}
	}
	for alias, canonical := range skillAliases {
		vocab[alias] = true
		vocab[canonical] = true
	}

	tokens := tokenRe.FindAllString(lowerJD, -1)
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		norm := normalizeSkill(tok)
		if vocab[norm] && !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	// Multi-word vocabulary entries (e.g. "machine learning") won't
	// tokenize as one token; check those as substrings too.
	for skill := range vocab {
		if strings.Contains(skill, " ") && strings.Contains(lowerJD, skill) && !seen[skill] {
			seen[skill] = true
			out = append(out, skill)
		}
	}
	return out
}

func extractSeniority(lowerJD string) string {
	for _, word := range knownSeniorityWords {
		if strings.Contains(lowerJD, word) {
			if word == "chief" {
				return "c-level"
			}
			return word
		}
	}
	return ""
}

func extractDomains(lowerJD string) []string {
	candidates := []string{"fintech", "healthcare", "e-commerce", "gaming", "enterprise", "saas", "logistics", "adtech"}
	var out []string
	for _, d := range candidates {
		if strings.Contains(lowerJD, d) {
			out = append(out, d)
		}
	}
	return out
}

// classifyRoleType is the rule-based IC/Manager classifier: any
// configured keyword present in the JD text marks it Manager. The
// matched keyword (or its absence) is returned as the logged reason.
func classifyRoleType(lowerJD string, keywords []string) (models.RoleType, string) {
	for _, kw := range keywords {
		if strings.Contains(lowerJD, kw) {
			return models.RoleManager, "matched keyword: " + kw
		}
	}
	return models.RoleIC, "no manager keyword matched"
}
