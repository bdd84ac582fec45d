// Package rerankservice implements the Rerank Service (component F):
// LLM-driven reordering of a top-K candidate set with a deterministic
// cache, strict-then-lenient JSON parsing of the LLM's output, and a
// primary→secondary provider fallback chain that degrades to the
// input order rather than ever failing the request.
package rerankservice

import (
	"context"
	"errors"
)

var errNoProvidersAvailable = errors.New("rerankservice: no providers configured")

// DocsetEntry is one candidate's minimal rationale input sent to the
// LLM for reranking.
type DocsetEntry struct {
	CandidateID    string
	RationaleInput string
	HybridScore    float64
}

// Request is one rerank call's full input.
type Request struct {
	TenantID string
	JDText   string
	Docset   []DocsetEntry
	Model    string
}

// ScoredCandidate is one entry of a rerank provider's output: a score
// in [0,1] and a short natural-language reason.
type ScoredCandidate struct {
	CandidateID string  `json:"candidateId"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// ErrorClass classifies a rerank provider failure (spec §4.F).
type ErrorClass string

const (
	ErrProviderTimeout     ErrorClass = "ProviderTimeout"
	ErrProviderRateLimited ErrorClass = "ProviderRateLimited"
	ErrParseFailure        ErrorClass = "ParseFailure"
	ErrUpstream5xx         ErrorClass = "Upstream5xx"
)

// ProviderError carries the classification alongside the cause.
type ProviderError struct {
	Provider string
	Class    ErrorClass
	Cause    error
}

func (e *ProviderError) Error() string {
	return string(e.Class) + " from " + e.Provider + ": " + e.Cause.Error()
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Provider is one LLM backend capable of reranking a docset.
type Provider interface {
	Name() string
	Rerank(ctx context.Context, req Request) ([]ScoredCandidate, error)
}
