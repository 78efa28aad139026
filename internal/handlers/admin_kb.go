package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/services"
	"github.com/jucity/ai-manager-backend/internal/types"
)

// AdminKBHandler manages knowledge base sources and the reindex
// lifecycle. Reindex requests only enqueue a job; the background worker
// builds the index and flips the active pointer on success.
type AdminKBHandler struct {
	db      *gorm.DB
	parks   repos.ParkRepo
	sources repos.KBSourceRepo
	jobs    repos.KBJobRepo
	indexes repos.KBIndexRepo
	changes repos.ChangeLogRepo
	indexer services.KBIndexerService
}

func NewAdminKBHandler(
	db *gorm.DB,
	parks repos.ParkRepo,
	sources repos.KBSourceRepo,
	jobs repos.KBJobRepo,
	indexes repos.KBIndexRepo,
	changes repos.ChangeLogRepo,
	indexer services.KBIndexerService,
) *AdminKBHandler {
	return &AdminKBHandler{
		db:      db,
		parks:   parks,
		sources: sources,
		jobs:    jobs,
		indexes: indexes,
		changes: changes,
		indexer: indexer,
	}
}

func (h *AdminKBHandler) park(c *gin.Context) *types.Park {
	park, err := h.parks.GetBySlug(c.Request.Context(), nil, c.Param("slug"))
	if err != nil {
		RespondAppError(c, err)
		return nil
	}
	if park == nil {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, apierr.NotFound("park not found"))
		return nil
	}
	return park
}

// GET /v1/admin/parks/:slug/kb/sources
func (h *AdminKBHandler) ListSources(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	sources, err := h.sources.List(c.Request.Context(), nil, park.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"sources": sources})
}

type kbSourceCreateRequest struct {
	SourceType string     `json:"source_type" binding:"required"`
	SourceURL  *string    `json:"source_url"`
	FilePath   *string    `json:"file_path"`
	Title      *string    `json:"title"`
	Enabled    *bool      `json:"enabled"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func validateExpiresAt(expiresAt *time.Time) error {
	if expiresAt == nil {
		return nil
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if expiresAt.Before(today) {
		return apierr.Invalid("expires_at must not be in the past")
	}
	return nil
}

// POST /v1/admin/parks/:slug/kb/sources
func (h *AdminKBHandler) CreateSource(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req kbSourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	switch req.SourceType {
	case types.KBSourceTypeURL:
		if req.SourceURL == nil || *req.SourceURL == "" {
			RespondAppError(c, apierr.Invalid("source_url is required for source_type=url"))
			return
		}
	case types.KBSourceTypePDF, types.KBSourceTypeFile:
		if req.FilePath == nil || *req.FilePath == "" {
			RespondAppError(c, apierr.Invalid("file_path is required for source_type=pdf"))
			return
		}
	default:
		RespondAppError(c, apierr.Invalid("unsupported source_type %q", req.SourceType))
		return
	}
	if err := validateExpiresAt(req.ExpiresAt); err != nil {
		RespondAppError(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	ctx := c.Request.Context()
	var source *types.KBSource
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		source, err = h.sources.EnsureByLocation(ctx, tx, &types.KBSource{
			ParkID:     park.ID,
			Enabled:    enabled,
			SourceType: req.SourceType,
			SourceURL:  req.SourceURL,
			FilePath:   req.FilePath,
			Title:      req.Title,
			ExpiresAt:  req.ExpiresAt,
		})
		if err != nil {
			return err
		}
		// EnsureByLocation may return a pre-existing row; bring its
		// mutable fields in line with the request.
		updates := map[string]interface{}{"enabled": enabled}
		if req.Title != nil {
			updates["title"] = req.Title
		}
		if req.ExpiresAt != nil {
			updates["expires_at"] = req.ExpiresAt
		}
		if err := h.sources.UpdateFields(ctx, tx, source.ID, updates); err != nil {
			return err
		}
		parkID := park.ID
		return h.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       adminActor(c),
			EntityTable: "kb_source",
			Action:      "upsert",
			BeforeJSON:  toJSON(nil),
			AfterJSON:   toJSON(req),
		})
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"source": source})
}

type kbSourcePatchRequest struct {
	Enabled   *bool      `json:"enabled"`
	Title     *string    `json:"title"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// PATCH /v1/admin/parks/:slug/kb/sources/:id
func (h *AdminKBHandler) PatchSource(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	var req kbSourcePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	if err := validateExpiresAt(req.ExpiresAt); err != nil {
		RespondAppError(c, err)
		return
	}

	ctx := c.Request.Context()
	source, err := h.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if source == nil || source.ParkID != park.ID {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, apierr.NotFound("kb source not found"))
		return
	}

	updates := map[string]interface{}{}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Title != nil {
		updates["title"] = req.Title
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = req.ExpiresAt
	}
	if len(updates) == 0 {
		RespondOK(c, gin.H{"source": source})
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.sources.UpdateFields(ctx, tx, source.ID, updates); err != nil {
			return err
		}
		parkID := park.ID
		return h.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       adminActor(c),
			EntityTable: "kb_source",
			Action:      "update",
			BeforeJSON:  toJSON(source),
			AfterJSON:   toJSON(updates),
		})
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	updated, err := h.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"source": updated})
}

type reindexRequest struct {
	Reason *string `json:"reason"`
}

// POST /v1/admin/parks/:slug/kb/reindex
func (h *AdminKBHandler) Reindex(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req reindexRequest
	_ = c.ShouldBindJSON(&req)

	actor := adminActor(c)
	job, err := h.indexer.EnqueueReindex(c.Request.Context(), park.ID, &actor, req.Reason)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": job.ID, "status": job.Status})
}

// GET /v1/admin/parks/:slug/kb/jobs
func (h *AdminKBHandler) ListJobs(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	jobs, err := h.jobs.ListByPark(c.Request.Context(), nil, park.ID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"jobs": jobs})
}

type activateIndexRequest struct {
	IndexID uuid.UUID `json:"index_id" binding:"required"`
}

// POST /v1/admin/parks/:slug/kb/index/activate
//
// Manual pointer move for operators, e.g. pinning back a previous
// index after a bad reindex.
func (h *AdminKBHandler) ActivateIndex(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req activateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	ctx := c.Request.Context()
	index, err := h.indexes.GetByID(ctx, nil, req.IndexID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if index == nil || index.ParkID != park.ID {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, apierr.NotFound("kb index not found"))
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.indexes.Activate(ctx, tx, index.ID); err != nil {
			return err
		}
		if err := h.parks.SetActiveKBIndex(ctx, tx, park.ID, index.ID); err != nil {
			return err
		}
		parkID := park.ID
		return h.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       adminActor(c),
			EntityTable: "kb_index",
			Action:      "activate",
			BeforeJSON:  toJSON(park.ActiveKBIndexID),
			AfterJSON:   toJSON(index.ID),
		})
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"active_kb_index_id": index.ID})
}
