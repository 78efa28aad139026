package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/platform/qdrant"
	"github.com/jucity/ai-manager-backend/internal/types"
)

const defaultRetrieveTopK = 5

// CollectionName derives the qdrant collection for one built index.
// Collections are immutable per index id; activation only moves the
// park's pointer, so a half-built collection is never searchable.
func CollectionName(parkSlug string, indexID uuid.UUID) string {
	name := fmt.Sprintf("jucity_%s_idx_%s", parkSlug, indexID)
	return strings.ReplaceAll(name, "-", "")
}

// RAGService retrieves knowledge-base chunks for a query against the
// park's currently active index.
type RAGService interface {
	Retrieve(ctx context.Context, park *types.Park, query string, topK int) ([]domain.RetrievedChunk, error)
}

type ragService struct {
	log      *logger.Logger
	store    qdrant.VectorStore
	embedder EmbedderService
}

func NewRAGService(log *logger.Logger, store qdrant.VectorStore, embedder EmbedderService) RAGService {
	return &ragService{
		log:      log.With("service", "RAGService"),
		store:    store,
		embedder: embedder,
	}
}

func (s *ragService) Retrieve(ctx context.Context, park *types.Park, query string, topK int) ([]domain.RetrievedChunk, error) {
	if park == nil || park.ActiveKBIndexID == nil {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = defaultRetrieveTopK
	}

	vector, err := s.embedder.EmbedOne(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	collection := CollectionName(park.Slug, *park.ActiveKBIndexID)
	hits, err := s.store.Search(ctx, collection, vector, topK, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, domain.RetrievedChunk{
			Score:     hit.Score,
			SourceURL: payloadString(hit.Payload, "source_url"),
			Title:     payloadString(hit.Payload, "title"),
			ChunkID:   payloadString(hit.Payload, "chunk_id"),
			Text:      payloadString(hit.Payload, "text"),
		})
	}
	return chunks, nil
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
