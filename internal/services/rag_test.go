package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jucity/ai-manager-backend/internal/platform/qdrant"
	"github.com/jucity/ai-manager-backend/internal/types"
)

func TestCollectionName(t *testing.T) {
	indexID := uuid.MustParse("7f3a1c2e-9b4d-4e5f-8a6b-1c2d3e4f5a6b")
	got := CollectionName("nn", indexID)
	if strings.Contains(got, "-") {
		t.Fatalf("collection name must not contain dashes: %q", got)
	}
	want := "jucity_nn_idx_7f3a1c2e9b4d4e5f8a6b1c2d3e4f5a6b"
	if got != want {
		t.Fatalf("collection: want=%q got=%q", want, got)
	}
}

type fakeVectorStore struct {
	searchCollection string
	searchTopK       int
	hits             []qdrant.ScoredPoint
	searchErr        error
	upserted         []qdrant.Point
}

func (f *fakeVectorStore) EnsureCollection(context.Context, string, int) error { return nil }
func (f *fakeVectorStore) DeleteCollection(context.Context, string) error      { return nil }
func (f *fakeVectorStore) UpsertPoints(_ context.Context, _ string, points []qdrant.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, collection string, _ []float32, topK int, _ int64) ([]qdrant.ScoredPoint, error) {
	f.searchCollection = collection
	f.searchTopK = topK
	return f.hits, f.searchErr
}

func TestRetrieveWithoutActiveIndex(t *testing.T) {
	store := &fakeVectorStore{}
	rag := NewRAGService(testLog(t), store, NewHashEmbedder(testLog(t), 16))

	chunks, err := rag.Retrieve(context.Background(), &types.Park{Slug: "nn"}, "правила", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if chunks != nil {
		t.Fatalf("no active index must yield no chunks, got %d", len(chunks))
	}
	if store.searchCollection != "" {
		t.Fatalf("store must not be queried without an active index")
	}
}

func TestRetrieveMapsPayload(t *testing.T) {
	indexID := uuid.New()
	store := &fakeVectorStore{
		hits: []qdrant.ScoredPoint{
			{
				ID:    "p1",
				Score: 0.92,
				Payload: map[string]any{
					"source_url": "https://junglecity.ru/rules",
					"title":      "Правила",
					"chunk_id":   "0:abc",
					"text":       "Вход только в носках.",
				},
			},
		},
	}
	rag := NewRAGService(testLog(t), store, NewHashEmbedder(testLog(t), 16))

	park := &types.Park{Slug: "nn", ActiveKBIndexID: &indexID}
	chunks, err := rag.Retrieve(context.Background(), park, "какие правила", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks: want=1 got=%d", len(chunks))
	}
	if chunks[0].SourceURL != "https://junglecity.ru/rules" {
		t.Fatalf("source_url: got=%q", chunks[0].SourceURL)
	}
	if chunks[0].Text != "Вход только в носках." {
		t.Fatalf("text: got=%q", chunks[0].Text)
	}
	if chunks[0].Score != 0.92 {
		t.Fatalf("score: got=%v", chunks[0].Score)
	}
	if store.searchCollection != CollectionName("nn", indexID) {
		t.Fatalf("collection: got=%q", store.searchCollection)
	}
	if store.searchTopK != defaultRetrieveTopK {
		t.Fatalf("topK must default to %d, got %d", defaultRetrieveTopK, store.searchTopK)
	}
}
