package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

func doc(id string, vectorScore, textScore float64) models.CandidateDocument {
	return models.CandidateDocument{CandidateID: id, VectorScore: vectorScore, TextScore: textScore}
}

func TestFuseRRF_CombinesAndDeduplicatesByRank(t *testing.T) {
	vectorRanked := []models.CandidateDocument{doc("c1", 0.9, 0), doc("c2", 0.8, 0), doc("c3", 0.7, 0)}
	textRanked := []models.CandidateDocument{doc("c2", 0, 0.95), doc("c1", 0, 0.6)}

	fused := fuseRRF(vectorRanked, textRanked)
	require.Len(t, fused, 3)

	byID := map[string]models.CandidateDocument{}
	for _, d := range fused {
		byID[d.CandidateID] = d
	}

	// c1: rank0 in vector (1/61) + rank1 in text (1/62)
	expectedC1 := 1.0/61 + 1.0/62
	// c2: rank1 in vector (1/62) + rank0 in text (1/61)
	expectedC2 := 1.0/62 + 1.0/61
	// c3: rank2 in vector only (1/63)
	expectedC3 := 1.0 / 63

	assert.InDelta(t, expectedC1, byID["c1"].HybridScore, 1e-9)
	assert.InDelta(t, expectedC2, byID["c2"].HybridScore, 1e-9)
	assert.InDelta(t, expectedC3, byID["c3"].HybridScore, 1e-9)

	// c1 and c2 tie in combined score; sorted output should be
	// deterministic (highest score first, ties broken lexicographically).
	assert.Equal(t, "c1", fused[0].CandidateID)
	assert.Equal(t, "c2", fused[1].CandidateID)
	assert.Equal(t, "c3", fused[2].CandidateID)
}

func TestFuseRRF_EmptyInputsProduceEmptyPool(t *testing.T) {
	fused := fuseRRF(nil, nil)
	assert.Empty(t, fused)
}

func TestFuseRRF_SingleRecallPathOnly(t *testing.T) {
	textRanked := []models.CandidateDocument{doc("c1", 0, 0.5)}
	fused := fuseRRF(nil, textRanked)
	require.Len(t, fused, 1)
	assert.Equal(t, "c1", fused[0].CandidateID)
	assert.InDelta(t, 1.0/61, fused[0].HybridScore, 1e-9)
}
