package rerankservice

import (
	"encoding/json"
	"errors"
	"strings"
)

// parseScoredCandidates implements the strict-then-lenient parse
// policy (spec §9 Open Question 2): first try a direct decode of the
// LLM's raw text; on failure, strip Markdown code fences and trim any
// prose surrounding the outermost JSON array, then retry once. Two
// total attempts; anything else is a ParseFailure, never a crash or a
// best-effort partial parse.
func parseScoredCandidates(raw string) ([]ScoredCandidate, error) {
	var direct []ScoredCandidate
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return direct, nil
	}

	lenient := stripCodeFences(raw)
	lenient = extractOutermostJSON(lenient)
	if lenient == "" {
		return nil, errors.New("no JSON array found in provider response")
	}

	var fallback []ScoredCandidate
	if err := json.Unmarshal([]byte(lenient), &fallback); err != nil {
		return nil, err
	}
	return fallback, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening fence line (``` or ```json) and a trailing
	// closing fence line, if present.
	lines = lines[1:]
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractOutermostJSON trims any leading/trailing prose outside the
// first '[' / '{' and the matching last ']' / '}'.
func extractOutermostJSON(s string) string {
	startArr := strings.IndexByte(s, '[')
	startObj := strings.IndexByte(s, '{')
	start := -1
	var open, closeCh byte
	switch {
	case startArr == -1 && startObj == -1:
		return ""
	case startArr == -1:
		start, open, closeCh = startObj, '{', '}'
	case startObj == -1:
		start, open, closeCh = startArr, '[', ']'
	case startArr < startObj:
		start, open, closeCh = startArr, '[', ']'
	default:
		start, open, closeCh = startObj, '{', '}'
	}
	_ = open
	end := strings.LastIndexByte(s, closeCh)
	if end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}
