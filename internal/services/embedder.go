package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

const (
	EmbedProviderLocalHash = "local_hash"

	defaultEmbedDim = 256
)

// EmbedderService turns chunk or query text into fixed-dimension vectors.
// Every index and every query for a park must go through the same
// provider and dimension, otherwise search scores are meaningless.
type EmbedderService interface {
	Dim() int
	Embed(texts []string) ([][]float32, error)
	EmbedOne(text string) ([]float32, error)
}

// EmbedderConfig selects the vector provider and dimension. A Dim of
// zero means the default.
type EmbedderConfig struct {
	Provider string
	Dim      int
}

// NewEmbedderService fails fast on a provider it does not know. Silent
// fallback here would build an index nobody can query.
func NewEmbedderService(log *logger.Logger, cfg EmbedderConfig) (EmbedderService, error) {
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = EmbedProviderLocalHash
	}

	dim := cfg.Dim
	if dim == 0 {
		dim = defaultEmbedDim
	}
	if dim < 0 {
		return nil, fmt.Errorf("invalid EMBED_DIM=%d; expected positive integer", dim)
	}

	switch provider {
	case EmbedProviderLocalHash:
		return NewHashEmbedder(log, dim), nil
	}
	return nil, fmt.Errorf("unknown EMBED_PROVIDER=%q", provider)
}

// hashEmbedder is a deterministic bag-of-tokens embedding: each token
// hashes to one dimension with a hash-derived sign, and the result is
// L2-normalized. No model weights, no network, identical output for
// identical input on every host.
type hashEmbedder struct {
	log *logger.Logger
	dim int
}

func NewHashEmbedder(log *logger.Logger, dim int) EmbedderService {
	return &hashEmbedder{
		log: log.With("service", "HashEmbedder"),
		dim: dim,
	}
}

func (e *hashEmbedder) Dim() int { return e.dim }

func (e *hashEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.EmbedOne(text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

var embedTokenRE = regexp.MustCompile(`[a-zа-я0-9]{2,}`)

func (e *hashEmbedder) EmbedOne(text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	tokens := embedTokenRE.FindAllString(strings.ToLower(text), -1)
	for _, token := range tokens {
		h := fnv1a32(token)
		sign := float32(1)
		if h>>31 == 1 {
			sign = -1
		}
		vec[int(h)%e.dim] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func fnv1a32(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
