package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/kb"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/platform/qdrant"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/types"
)

const (
	reindexSourceConcurrency = 4

	// 3000-01-01T00:00:00Z; payload filter value for sources without expiry.
	noExpiryEpoch = int64(32503680000)
)

// KBIndexerService owns the reindex lifecycle: the request path enqueues
// and returns immediately, a worker claims the job and runs the build.
// A new index becomes searchable only after the whole build succeeded
// and the park pointer flipped.
type KBIndexerService interface {
	EnqueueReindex(ctx context.Context, parkID uuid.UUID, triggeredBy, reason *string) (*types.KBIndexJob, error)
	RunJob(ctx context.Context, job *types.KBIndexJob) error
}

type kbIndexerService struct {
	log      *logger.Logger
	db       *gorm.DB
	parks    repos.ParkRepo
	sources  repos.KBSourceRepo
	jobs     repos.KBJobRepo
	indexes  repos.KBIndexRepo
	fetcher  kb.Fetcher
	embedder EmbedderService
	store    qdrant.VectorStore
}

func NewKBIndexerService(
	log *logger.Logger,
	db *gorm.DB,
	parks repos.ParkRepo,
	sources repos.KBSourceRepo,
	jobs repos.KBJobRepo,
	indexes repos.KBIndexRepo,
	fetcher kb.Fetcher,
	embedder EmbedderService,
	store qdrant.VectorStore,
) KBIndexerService {
	return &kbIndexerService{
		log:      log.With("service", "KBIndexerService"),
		db:       db,
		parks:    parks,
		sources:  sources,
		jobs:     jobs,
		indexes:  indexes,
		fetcher:  fetcher,
		embedder: embedder,
		store:    store,
	}
}

// EnqueueReindex records the job with a snapshot of the enabled sources
// at enqueue time. The partial unique index on active jobs turns a
// concurrent enqueue into a conflict, which surfaces as HTTP 409.
func (s *kbIndexerService) EnqueueReindex(ctx context.Context, parkID uuid.UUID, triggeredBy, reason *string) (*types.KBIndexJob, error) {
	park, err := s.parks.GetByID(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("load park: %w", err)
	}
	if park == nil {
		return nil, apierr.NotFound("park %s not found", parkID)
	}

	sources, err := s.sources.ListEnabled(ctx, nil, parkID)
	if err != nil {
		return nil, fmt.Errorf("list enabled sources: %w", err)
	}

	snapshot := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		snapshot = append(snapshot, map[string]any{
			"id":          src.ID.String(),
			"source_type": src.SourceType,
			"source_url":  src.SourceURL,
			"file_path":   src.FilePath,
			"title":       src.Title,
		})
	}
	sourcesJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal sources snapshot: %w", err)
	}

	job := &types.KBIndexJob{
		ParkID:      parkID,
		Status:      types.KBJobQueued,
		TriggeredBy: triggeredBy,
		Reason:      reason,
		SourcesJSON: datatypes.JSON(sourcesJSON),
	}
	return s.jobs.Enqueue(ctx, nil, job)
}

// RunJob executes one claimed (already running) job to completion. Any
// error marks the job failed and is returned to the worker; a per-source
// fetch failure only drops that source from the build.
func (s *kbIndexerService) RunJob(ctx context.Context, job *types.KBIndexJob) error {
	if err := s.buildIndex(ctx, job); err != nil {
		if ferr := s.jobs.SetFailed(ctx, nil, job.ID, err.Error()); ferr != nil {
			s.log.Error("mark reindex job failed", "job_id", job.ID, "error", ferr)
		}
		return err
	}
	return nil
}

type indexStats struct {
	SourcesCount int   `json:"sources_count"`
	ChunksCount  int   `json:"chunks_count"`
	EmbedTimeMS  int64 `json:"embed_time_ms"`
	UpsertTimeMS int64 `json:"upsert_time_ms"`
}

func (s *kbIndexerService) buildIndex(ctx context.Context, job *types.KBIndexJob) error {
	park, err := s.parks.GetByID(ctx, nil, job.ParkID)
	if err != nil {
		return fmt.Errorf("load park: %w", err)
	}
	if park == nil {
		return fmt.Errorf("park %s not found", job.ParkID)
	}

	sources, err := s.sources.ListEnabled(ctx, nil, park.ID)
	if err != nil {
		return fmt.Errorf("list enabled sources: %w", err)
	}

	index, err := s.indexes.Create(ctx, nil, &types.KBIndex{
		ParkID: park.ID,
		Label:  "reindex " + time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("create index record: %w", err)
	}

	collection := CollectionName(park.Slug, index.ID)
	if err := s.store.EnsureCollection(ctx, collection, s.embedder.Dim()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	var chunksCount, embedMS, upsertMS atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reindexSourceConcurrency)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			n, eMS, uMS, err := s.indexSource(gctx, park, index.ID, collection, src)
			if err != nil {
				return err
			}
			chunksCount.Add(int64(n))
			embedMS.Add(eMS)
			upsertMS.Add(uMS)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := indexStats{
		SourcesCount: len(sources),
		ChunksCount:  int(chunksCount.Load()),
		EmbedTimeMS:  embedMS.Load(),
		UpsertTimeMS: upsertMS.Load(),
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := s.jobs.SetSuccess(ctx, nil, job.ID, datatypes.JSON(statsJSON)); err != nil {
		return fmt.Errorf("mark job success: %w", err)
	}

	// Activation and the park pointer move together or not at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.indexes.Activate(ctx, tx, index.ID); err != nil {
			return err
		}
		return s.parks.SetActiveKBIndex(ctx, tx, park.ID, index.ID)
	})
	if err != nil {
		return fmt.Errorf("activate index: %w", err)
	}

	s.log.Info("reindex finished",
		"job_id", job.ID,
		"index_id", index.ID,
		"collection", collection,
		"sources_count", stats.SourcesCount,
		"chunks_count", stats.ChunksCount,
	)
	return nil
}

func (s *kbIndexerService) indexSource(
	ctx context.Context,
	park *types.Park,
	indexID uuid.UUID,
	collection string,
	src *types.KBSource,
) (int, int64, int64, error) {
	now := time.Now().UTC()
	if src.ExpiresAt != nil && !src.ExpiresAt.After(now) {
		return 0, 0, 0, nil
	}

	doc, err := s.fetcher.FetchSource(ctx, src)
	if err != nil {
		s.log.Warn("kb source fetch failed, skipping",
			"source_id", src.ID,
			"source_type", src.SourceType,
			"error", err,
		)
		return 0, 0, 0, nil
	}
	if src.LastHash != nil && *src.LastHash == doc.TextHash {
		return 0, 0, 0, nil
	}

	title := doc.Title
	if title == "" && src.Title != nil {
		title = *src.Title
	}
	sourceURL := doc.SourceURL
	if sourceURL == "" && src.SourceURL != nil {
		sourceURL = *src.SourceURL
	}

	chunks := kb.SplitText(doc.Text, title, sourceURL)
	if len(chunks) == 0 {
		return 0, 0, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.ChunkText
	}
	embedStart := time.Now()
	vectors, err := s.embedder.Embed(texts)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("embed source %s: %w", src.ID, err)
	}
	embedMS := time.Since(embedStart).Milliseconds()

	createdAt := now.Format(time.RFC3339)
	expiresEpoch := noExpiryEpoch
	if src.ExpiresAt != nil {
		expiresEpoch = src.ExpiresAt.Unix()
	}
	points := make([]qdrant.Point, len(chunks))
	for i, c := range chunks {
		points[i] = qdrant.Point{
			ID:     c.ChunkID,
			Vector: vectors[i],
			Payload: map[string]any{
				"park_slug":        park.Slug,
				"kb_index_id":      indexID.String(),
				"source_url":       c.SourceURL,
				"title":            c.Title,
				"chunk_id":         c.ChunkID,
				"chunk_index":      c.ChunkIndex,
				"text_hash":        doc.TextHash,
				"text":             truncateChunkText(c.ChunkText),
				"created_at":       createdAt,
				"expires_at_epoch": expiresEpoch,
			},
		}
	}

	upsertStart := time.Now()
	if err := s.store.UpsertPoints(ctx, collection, points); err != nil {
		return 0, 0, 0, fmt.Errorf("upsert source %s: %w", src.ID, err)
	}
	upsertMS := time.Since(upsertStart).Milliseconds()

	if err := s.sources.UpdateFetched(ctx, nil, src.ID, doc.TextHash, doc.ContentType, now); err != nil {
		return 0, 0, 0, fmt.Errorf("update source %s fetch state: %w", src.ID, err)
	}
	return len(chunks), embedMS, upsertMS, nil
}

const payloadTextCap = 4000

func truncateChunkText(s string) string {
	runes := []rune(s)
	if len(runes) <= payloadTextCap {
		return s
	}
	return string(runes[:payloadTextCap])
}
