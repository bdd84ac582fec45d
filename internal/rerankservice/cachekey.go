package rerankservice

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// CacheKey computes the deterministic rerank cache key (spec §4.F):
// hash(tenantId, jdHash, docsetHash, modelVersion, weightsVersion).
// Identical inputs always produce the identical key, regardless of
// docset ordering, so two equivalent requests share a cache entry.
func CacheKey(tenantID, jdHash string, docset []DocsetEntry, modelVersion, weightsVersion string) string {
	ids := make([]string, len(docset))
	for i, d := range docset {
		ids[i] = d.CandidateID
	}
	sort.Strings(ids)
	docsetHash := hashStrings(ids)

	h := sha256.New()
	for _, part := range []string{tenantID, jdHash, docsetHash, modelVersion, weightsVersion} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// JDHash hashes the normalized job-description text.
func JDHash(jdText string) string {
	return hashStrings([]string{strings.TrimSpace(jdText)})
}

func hashStrings(parts []string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
