package rerankservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoredCandidates_DirectDecode(t *testing.T) {
	raw := `[{"candidateId":"c1","score":0.9,"reason":"strong match"}]`
	scored, err := parseScoredCandidates(raw)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "c1", scored[0].CandidateID)
	assert.Equal(t, 0.9, scored[0].Score)
}

func TestParseScoredCandidates_MarkdownFenceStripped(t *testing.T) {
	raw := "```json\n[{\"candidateId\":\"c1\",\"score\":0.5,\"reason\":\"ok\"}]\n```"
	scored, err := parseScoredCandidates(raw)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "c1", scored[0].CandidateID)
}

func TestParseScoredCandidates_ProseSurroundingJSON(t *testing.T) {
	raw := "Here is the ranking:\n[{\"candidateId\":\"c2\",\"score\":0.3,\"reason\":\"weak\"}]\nLet me know if you need more."
	scored, err := parseScoredCandidates(raw)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "c2", scored[0].CandidateID)
}

func TestParseScoredCandidates_TwoAttemptsThenFailure(t *testing.T) {
	raw := "I cannot produce a ranking for this request."
	_, err := parseScoredCandidates(raw)
	assert.Error(t, err)
}

func TestStripCodeFences_NoFenceIsNoOp(t *testing.T) {
	raw := `[{"candidateId":"c1","score":1,"reason":"x"}]`
	assert.Equal(t, raw, stripCodeFences(raw))
}

func TestExtractOutermostJSON_PicksEarliestBracket(t *testing.T) {
	raw := `noise [1,2,3] more noise`
	assert.Equal(t, "[1,2,3]", extractOutermostJSON(raw))
}

func TestExtractOutermostJSON_NoJSONReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", extractOutermostJSON("no json here"))
}
