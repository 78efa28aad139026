package services

import (
	"math"
	"testing"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestNewEmbedderServiceDefaults(t *testing.T) {
	emb, err := NewEmbedderService(testLog(t), EmbedderConfig{})
	if err != nil {
		t.Fatalf("NewEmbedderService: %v", err)
	}
	if emb.Dim() != 256 {
		t.Fatalf("dim: want=256 got=%d", emb.Dim())
	}
}

func TestNewEmbedderServiceUnknownProvider(t *testing.T) {
	if _, err := NewEmbedderService(testLog(t), EmbedderConfig{Provider: "word2vec"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewEmbedderServiceInvalidDim(t *testing.T) {
	cfg := EmbedderConfig{Provider: "local_hash", Dim: -16}
	if _, err := NewEmbedderService(testLog(t), cfg); err == nil {
		t.Fatalf("expected error for invalid EMBED_DIM")
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	emb := NewHashEmbedder(testLog(t), 64)
	a, err := emb.EmbedOne("Сколько стоит билет в парк")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	b, err := emb.EmbedOne("сколько СТОИТ билет в парк")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("case must not change the vector at dim %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	emb := NewHashEmbedder(testLog(t), 64)
	vec, err := emb.EmbedOne("часы работы парка джунгли")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Fatalf("squared norm: want≈1 got=%v", norm)
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	emb := NewHashEmbedder(testLog(t), 16)
	vec, err := emb.EmbedOne("!!! ??")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("tokenless text must embed to zero vector, dim %d = %v", i, v)
		}
	}
}

func TestHashEmbedderBatch(t *testing.T) {
	emb := NewHashEmbedder(testLog(t), 32)
	vecs, err := emb.Embed([]string{"аттракционы", "правила"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("vectors: want=2 got=%d", len(vecs))
	}
	if len(vecs[0]) != 32 {
		t.Fatalf("dim: want=32 got=%d", len(vecs[0]))
	}
}
