package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type AdminParksHandler struct {
	parks repos.ParkRepo
	leads repos.LeadRepo
}

func NewAdminParksHandler(parks repos.ParkRepo, leads repos.LeadRepo) *AdminParksHandler {
	return &AdminParksHandler{parks: parks, leads: leads}
}

type parkCreateRequest struct {
	Slug    string `json:"slug" binding:"required"`
	Name    string `json:"name" binding:"required"`
	BaseURL string `json:"base_url" binding:"required"`
}

// POST /v1/admin/parks
func (h *AdminParksHandler) CreatePark(c *gin.Context) {
	var req parkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	if !strings.HasPrefix(req.BaseURL, "http://") && !strings.HasPrefix(req.BaseURL, "https://") {
		RespondAppError(c, apierr.Invalid("base_url must be an absolute http(s) URL"))
		return
	}

	park, err := h.parks.Create(c.Request.Context(), nil, &types.Park{
		Slug:    req.Slug,
		Name:    req.Name,
		BaseURL: strings.TrimRight(req.BaseURL, "/"),
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"park": park})
}

// GET /v1/admin/parks
func (h *AdminParksHandler) ListParks(c *gin.Context) {
	parks, err := h.parks.List(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"parks": parks})
}

// GET /v1/admin/parks/:slug/leads
func (h *AdminParksHandler) ListLeads(c *gin.Context) {
	park, err := h.parks.GetBySlug(c.Request.Context(), nil, c.Param("slug"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if park == nil {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, apierr.NotFound("park not found"))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	leads, err := h.leads.ListByPark(c.Request.Context(), nil, park.ID, c.Query("status"), limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"leads": leads})
}
