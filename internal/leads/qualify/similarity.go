package qualify

import (
	"context"
	"math"
	"sync"

	"leadqual_backend/platform/ai/embeddings"
)

// SeedComparison holds the best cosine similarity of a text against two seed
// phrase sets.
type SeedComparison struct {
	MaxPositive float64
	MaxNegative float64
}

// Similarity scores a text against positive and negative seed phrase sets in
// a shared vector space. Implementations must be safe for concurrent use.
type Similarity interface {
	Compare(ctx context.Context, text string, positive, negative []string) (SeedComparison, error)
}

// EmbeddingSimilarity implements Similarity on top of the embedding API
// client. Seed phrase vectors are cached after the first call since the seed
// sets come from the immutable ruleset.
type EmbeddingSimilarity struct {
	client    *embeddings.Client
	seedCache sync.Map // phrase -> []float32
}

// NewEmbeddingSimilarity creates a similarity scorer backed by the embedding API.
func NewEmbeddingSimilarity(client *embeddings.Client) *EmbeddingSimilarity {
	return &EmbeddingSimilarity{client: client}
}

// Compare embeds the text once and each seed phrase (cached), returning the
// maximum cosine similarity per seed set.
func (s *EmbeddingSimilarity) Compare(ctx context.Context, text string, positive, negative []string) (SeedComparison, error) {
	textVec, err := s.client.Embed(ctx, text)
	if err != nil {
		return SeedComparison{}, err
	}

	maxPos, err := s.maxSimilarity(ctx, textVec, positive)
	if err != nil {
		return SeedComparison{}, err
	}
	maxNeg, err := s.maxSimilarity(ctx, textVec, negative)
	if err != nil {
		return SeedComparison{}, err
	}

	return SeedComparison{MaxPositive: maxPos, MaxNegative: maxNeg}, nil
}

func (s *EmbeddingSimilarity) maxSimilarity(ctx context.Context, textVec []float32, seeds []string) (float64, error) {
	best := 0.0
	for i, seed := range seeds {
		seedVec, err := s.seedVector(ctx, seed)
		if err != nil {
			return 0, err
		}
		sim := float64(cosineSimilarity(textVec, seedVec))
		if i == 0 || sim > best {
			best = sim
		}
	}
	return best, nil
}

func (s *EmbeddingSimilarity) seedVector(ctx context.Context, seed string) ([]float32, error) {
	if cached, ok := s.seedCache.Load(seed); ok {
		return cached.([]float32), nil
	}
	vec, err := s.client.Embed(ctx, seed)
	if err != nil {
		return nil, err
	}
	s.seedCache.Store(seed, vec)
	return vec, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors yield 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
