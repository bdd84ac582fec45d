package scoring

import "strings"

// seniorityLadder is the closed ordered set spec §4.E fixes: intern
// at rung 0 and junior at rung 1, through c-level at rung 7.
// Unknown titles map to a dedicated "unknown" rung and never exclude
// the candidate (spec edge case); callers treat an unknown rung as a
// missing input (neutral 0.5), not a penalty.
var seniorityLadder = map[string]int{
	"intern":    0,
	"junior":    1,
	"mid":       2,
	"senior":    3,
	"staff":     4,
	"principal": 5,
	"director":  6,
	"c-level":   7,
}

const unknownSeniorityRung = -1

const maxSeniorityDistance = 7 // c-level - intern

// levelOf maps a free-text seniority label or title to a ladder rung,
// returning unknownSeniorityRung when nothing in the ladder matches.
func levelOf(label string) int {
	l := strings.ToLower(strings.TrimSpace(label))
	if rung, ok := seniorityLadder[l]; ok {
		return rung
	}
	switch {
	case strings.Contains(l, "c-level"), strings.Contains(l, "chief"), strings.Contains(l, "cto"), strings.Contains(l, "cpo"), strings.Contains(l, "ceo"):
		return seniorityLadder["c-level"]
	case strings.Contains(l, "director"), strings.Contains(l, "vp"), strings.Contains(l, "head of"):
		return seniorityLadder["director"]
	case strings.Contains(l, "principal"):
		return seniorityLadder["principal"]
	case strings.Contains(l, "staff"):
		return seniorityLadder["staff"]
	case strings.Contains(l, "senior"), strings.Contains(l, "sr."), strings.Contains(l, "sr "):
		return seniorityLadder["senior"]
	case strings.Contains(l, "junior"), strings.Contains(l, "jr."), strings.Contains(l, "jr "):
		return seniorityLadder["junior"]
	case strings.Contains(l, "intern"):
		return seniorityLadder["intern"]
	case strings.Contains(l, "mid"):
		return seniorityLadder["mid"]
	}
	return unknownSeniorityRung
}

// seniorityAlignment is 1 minus the normalized ladder distance between
// the JD's target seniority and the candidate's; either side being
// unknown yields the 0.5 neutral default rather than excluding the
// candidate.
func seniorityAlignment(targetSeniority, candidateSeniority string) float64 {
	target := levelOf(targetSeniority)
	candidate := levelOf(candidateSeniority)
	if target == unknownSeniorityRung || candidate == unknownSeniorityRung {
		return 0.5
	}
	distance := target - candidate
	if distance < 0 {
		distance = -distance
	}
	return clamp01(1.0 - float64(distance)/float64(maxSeniorityDistance))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
