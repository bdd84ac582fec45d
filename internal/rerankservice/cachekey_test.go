package rerankservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_DeterministicAcrossDocsetOrder(t *testing.T) {
	a := []DocsetEntry{{CandidateID: "c1"}, {CandidateID: "c2"}}
	b := []DocsetEntry{{CandidateID: "c2"}, {CandidateID: "c1"}}

	k1 := CacheKey("t1", "jdhash", a, "v1", "w1")
	k2 := CacheKey("t1", "jdhash", b, "v1", "w1")

	assert.Equal(t, k1, k2)
}

func TestCacheKey_DiffersByTenant(t *testing.T) {
	docset := []DocsetEntry{{CandidateID: "c1"}}
	k1 := CacheKey("t1", "jdhash", docset, "v1", "w1")
	k2 := CacheKey("t2", "jdhash", docset, "v1", "w1")
	assert.NotEqual(t, k1, k2)
}

func TestCacheKey_DiffersByModelVersion(t *testing.T) {
	docset := []DocsetEntry{{CandidateID: "c1"}}
	k1 := CacheKey("t1", "jdhash", docset, "v1", "w1")
	k2 := CacheKey("t1", "jdhash", docset, "v2", "w1")
	assert.NotEqual(t, k1, k2)
}

func TestJDHash_TrimsWhitespace(t *testing.T) {
	assert.Equal(t, JDHash("hello"), JDHash("  hello  "))
}
