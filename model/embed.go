package model

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"strings"
)

// EmbedderInterface определяет интерфейс для создания эмбеддингов
type EmbedderInterface interface {
	Embed(text string) ([]float32, error)
	Dim() int
}

const DefaultEmbeddingDim = 384

// HashedEmbedder is a deterministic hashed bag-of-tokens vectorizer.
// Tokens are hashed into a fixed number of buckets, so distinct tokens may
// collide; that approximation is accepted, no vocabulary is kept.
type HashedEmbedder struct {
	dim int
}

func NewHashedEmbedder(dim int) *HashedEmbedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &HashedEmbedder{dim: dim}
}

func (e *HashedEmbedder) Dim() int { return e.dim }

// Embed returns the L2-normalized term-frequency vector of text.
// Empty input yields the zero vector, left unnormalized.
func (e *HashedEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		vec[e.bucket(tok)] += 1.0
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (e *HashedEmbedder) EmbedMany(texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (e *HashedEmbedder) bucket(token string) int {
	sum := md5.Sum([]byte(token))
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(e.dim))
}
