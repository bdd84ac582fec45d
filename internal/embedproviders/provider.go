// Package embedproviders implements the pluggable embedding-provider
// abstraction (component C): primary (OpenAI), secondary (AWS Bedrock
// Titan), and local (deterministic, dev-only) variants behind one
// interface, wrapped in retry-with-jitter and a per-provider circuit
// breaker with a primary→secondary fallback chain.
package embedproviders

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// ErrorClass classifies a provider failure per spec §4.C.
type ErrorClass string

const (
	ErrRateLimited  ErrorClass = "RateLimited"
	ErrTimeout      ErrorClass = "Timeout"
	ErrInvalidInput ErrorClass = "InvalidInput"
	ErrUnavailable  ErrorClass = "Unavailable"
)

// ProviderError carries the classification alongside the underlying
// cause.
type ProviderError struct {
	Provider string
	Class    ErrorClass
	Cause    error
}

func (e *ProviderError) Error() string {
	return string(e.Class) + " from " + e.Provider + ": " + e.Cause.Error()
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Result is what a successful Embed call returns.
type Result struct {
	Vector       []float32
	Provider     string
	ModelVersion string
}

// Provider converts text to a fixed-dimension vector.
type Provider interface {
	Name() string
	Dimensions() int
	ModelVersion() string
	Embed(ctx context.Context, text string) (Result, error)
	HealthCheck(ctx context.Context) error
}

// maxInputRunes caps the text length sent to any provider; text.g.
// a multi-page profile summary is truncated rather than rejected.
const maxInputRunes = 8000

// PrepareText trims and length-caps input text the way every provider
// implementation is expected to before calling its backend.
func PrepareText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ProviderError{Class: ErrInvalidInput, Cause: errEmptyInput}
	}
	runes := []rune(trimmed)
	if len(runes) > maxInputRunes {
		trimmed = string(runes[:maxInputRunes])
	}
	return trimmed, nil
}

var errEmptyInput = emptyInputError{}

type emptyInputError struct{}

func (emptyInputError) Error() string { return "text is empty after trimming" }

// normalizeL2 scales v to unit length, used ahead of cosine similarity.
func normalizeL2(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// deterministicVector produces a reproducible pseudo-embedding from a
// SHA-256 hash of the text, used only by the local dev provider. It is
// not a meaningful semantic embedding — it exists so the full pipeline
// is exercisable without any external provider credentials.
func deterministicVector(text string, dims int) []float32 {
	sum := sha256.Sum256([]byte(text))
	out := make([]float32, dims)
	for i := 0; i < dims; i++ {
		b := sum[i%len(sum):]
		if len(b) < 4 {
			b = append(append([]byte{}, b...), sum[:4-len(b)]...)
		}
		v := binary.BigEndian.Uint32(b[:4])
		out[i] = float32(v%2000)/1000.0 - 1.0 // spread into roughly [-1, 1]
	}
	return normalizeL2(out)
}
