package scoring

import (
	"strings"
	"time"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// leadershipKeywords classify a title transition as part of a
// leadership track; technicalKeywords mark a continued IC ladder.
var leadershipKeywords = []string{"lead", "manager", "director", "head of", "vp", "chief"}
var technicalKeywords = []string{"engineer", "developer", "architect", "scientist"}

// trajectoryWindow bounds how many recent transitions the classifier
// considers, matching spec §4.E's "last N transitions."
const trajectoryWindow = 3

// ClassifyTrajectory derives direction/velocity/type from a
// candidate's title history, per spec §4.E. An empty or single-entry
// history cannot establish a trend; callers treat that as a missing
// input (neutral trajectoryFit), not a default "lateral" verdict.
func ClassifyTrajectory(history []models.TitleTransition) (models.RuleBasedTrajectory, bool) {
	if len(history) < 2 {
		return models.RuleBasedTrajectory{}, false
	}

	window := history
	if len(window) > trajectoryWindow+1 {
		window = window[len(window)-(trajectoryWindow+1):]
	}

	direction := classifyDirection(window)
	velocity := classifyVelocity(window)
	kind := classifyType(window)

	return models.RuleBasedTrajectory{Direction: direction, Velocity: velocity, Type: kind}, true
}

func classifyDirection(window []models.TitleTransition) string {
	up, down := 0, 0
	for i := 1; i < len(window); i++ {
		prev := levelOf(window[i-1].Title)
		cur := levelOf(window[i].Title)
		if prev == unknownSeniorityRung || cur == unknownSeniorityRung {
			continue
		}
		switch {
		case cur > prev:
			up++
		case cur < prev:
			down++
		}
	}
	switch {
	case up > down:
		return "upward"
	case down > up:
		return "downward"
	default:
		return "lateral"
	}
}

func classifyVelocity(window []models.TitleTransition) string {
	var totalMonths float64
	transitions := 0
	for i := 1; i < len(window); i++ {
		end := window[i-1].EndedAt
		if end == nil {
			end = &window[i].StartedAt
		}
		months := end.Sub(window[i-1].StartedAt).Hours() / (24 * 30)
		if months <= 0 {
			continue
		}
		totalMonths += months
		transitions++
	}
	if transitions == 0 {
		// Division by zero in velocity falls back to normal (spec edge case).
		return "normal"
	}
	avg := totalMonths / float64(transitions)
	switch {
	case avg < 12:
		return "fast"
	case avg <= 24:
		return "normal"
	default:
		return "slow"
	}
}

func classifyType(window []models.TitleTransition) string {
	leadershipHits, technicalHits := 0, 0
	for _, t := range window {
		title := strings.ToLower(t.Title)
		for _, kw := range leadershipKeywords {
			if strings.Contains(title, kw) {
				leadershipHits++
				break
			}
		}
		for _, kw := range technicalKeywords {
			if strings.Contains(title, kw) {
				technicalHits++
				break
			}
		}
	}

	last := strings.ToLower(window[len(window)-1].Title)
	first := strings.ToLower(window[0].Title)
	isLeadershipNow := containsAny(last, leadershipKeywords)
	wasLeadershipBefore := containsAny(first, leadershipKeywords)

	switch {
	case isLeadershipNow && !wasLeadershipBefore:
		return "leadership_track"
	case isLeadershipNow && wasLeadershipBefore:
		return "leadership_track"
	case technicalHits == len(window) && levelOf(last) > levelOf(first):
		return "technical_growth"
	case !isLeadershipNow && !wasLeadershipBefore && levelOf(last) == levelOf(first):
		return "lateral_move"
	default:
		return "career_pivot"
	}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// trajectoryFit scores a rule-based trajectory classification:
// upward movement scores highest, scaled by velocity; a missing
// classification (too little history) is the 0.5 neutral default.
func trajectoryFit(traj models.RuleBasedTrajectory, ok bool) float64 {
	if !ok {
		return 0.5
	}
	var base float64
	switch traj.Direction {
	case "upward":
		base = 1.0
	case "lateral":
		base = 0.6
	case "downward":
		base = 0.2
	default:
		base = 0.5
	}
	var velocityFactor float64
	switch traj.Velocity {
	case "fast":
		velocityFactor = 1.0
	case "normal":
		velocityFactor = 0.85
	case "slow":
		velocityFactor = 0.6
	default:
		velocityFactor = 0.85
	}
	return clamp01(base * velocityFactor)
}

// recencyBoost tiers by age since last update (spec §4.E): <6mo=1.0,
// 6-18mo=0.7, >18mo=0.4; a nil timestamp is the 0.5 neutral default.
func recencyBoost(updatedAt *time.Time, now time.Time) float64 {
	if updatedAt == nil {
		return 0.5
	}
	age := now.Sub(*updatedAt)
	switch {
	case age < 6*30*24*time.Hour:
		return 1.0
	case age <= 18*30*24*time.Hour:
		return 0.7
	default:
		return 0.4
	}
}
