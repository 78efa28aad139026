package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/domain"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/services"
	"github.com/jucity/ai-manager-backend/internal/types"
)

// AdminFactsHandler serves the facts editing surface: live-table
// replacement per category, publish, rollback, and version listing.
// Edits touch live tables only; users keep seeing the published
// snapshot until an explicit publish.
type AdminFactsHandler struct {
	db         *gorm.DB
	parks      repos.ParkRepo
	facts      repos.FactsRepo
	changes    repos.ChangeLogRepo
	governance services.FactsGovernanceService
}

func NewAdminFactsHandler(
	db *gorm.DB,
	parks repos.ParkRepo,
	facts repos.FactsRepo,
	changes repos.ChangeLogRepo,
	governance services.FactsGovernanceService,
) *AdminFactsHandler {
	return &AdminFactsHandler{
		db:         db,
		parks:      parks,
		facts:      facts,
		changes:    changes,
		governance: governance,
	}
}

func adminActor(c *gin.Context) string {
	actor := strings.TrimSpace(c.GetHeader("X-Admin-Actor"))
	if actor == "" {
		actor = "admin"
	}
	return actor
}

func (h *AdminFactsHandler) park(c *gin.Context) *types.Park {
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

// GET /v1/admin/parks/:slug/facts
func (h *AdminFactsHandler) GetFacts(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}

	view, err := h.governance.BuildLiveView(c.Request.Context(), park.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	version, _, err := h.governance.PublishedView(c.Request.Context(), park.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	payload := gin.H{
		"park_slug": park.Slug,
		"facts":     view,
	}
	if version != nil {
		payload["published_version_id"] = version.ID
	}
	RespondOK(c, payload)
}

type publishRequest struct {
	Notes *string `json:"notes"`
}

// POST /v1/admin/parks/:slug/publish
func (h *AdminFactsHandler) Publish(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req publishRequest
	_ = c.ShouldBindJSON(&req)

	version, err := h.governance.Publish(c.Request.Context(), park.ID, adminActor(c), req.Notes)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"published_version_id": version.ID})
}

// POST /v1/admin/parks/:slug/rollback
func (h *AdminFactsHandler) Rollback(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}

	version, err := h.governance.Rollback(c.Request.Context(), park.ID, adminActor(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"published_version_id": version.ID})
}

// GET /v1/admin/parks/:slug/versions
func (h *AdminFactsHandler) ListVersions(c *gin.Context) {
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
	versions, err := h.governance.ListVersions(c.Request.Context(), park.ID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

type contactIn struct {
	Type      string `json:"type" binding:"required"`
	Value     string `json:"value" binding:"required"`
	IsPrimary bool   `json:"is_primary"`
}

type contactsReplaceRequest struct {
	Items  []contactIn `json:"items"`
	Reason *string     `json:"reason"`
}

// PUT /v1/admin/parks/:slug/contacts
func (h *AdminFactsHandler) PutContacts(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req contactsReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	facts := make([]domain.ContactFact, 0, len(req.Items))
	rows := make([]*types.ParkContact, 0, len(req.Items))
	for _, item := range req.Items {
		facts = append(facts, domain.ContactFact{Type: item.Type, Value: item.Value, IsPrimary: item.IsPrimary})
		rows = append(rows, &types.ParkContact{
			ParkID:    park.ID,
			Type:      item.Type,
			Value:     item.Value,
			IsPrimary: item.IsPrimary,
		})
	}
	if err := domain.ValidateContacts(facts); err != nil {
		RespondAppError(c, err)
		return
	}

	err := h.replaceSection(c.Request.Context(), park, "park_contact", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetContacts(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceContacts(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type locationIn struct {
	AddressText string   `json:"address_text" binding:"required"`
	City        *string  `json:"city"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// PUT /v1/admin/parks/:slug/location
func (h *AdminFactsHandler) PutLocation(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req locationIn
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	row := &types.ParkLocation{
		ParkID:      park.ID,
		AddressText: req.AddressText,
		City:        req.City,
		Lat:         req.Lat,
		Lon:         req.Lon,
	}
	err := h.replaceSection(c.Request.Context(), park, "park_location", adminActor(c), nil,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetLocation(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.UpsertLocation(ctx, tx, row)
		},
		req,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type openingHourIn struct {
	Dow       int     `json:"dow"`
	OpenTime  *string `json:"open_time"`
	CloseTime *string `json:"close_time"`
	IsClosed  bool    `json:"is_closed"`
	Note      *string `json:"note"`
}

type openingHoursReplaceRequest struct {
	Items  []openingHourIn `json:"items"`
	Reason *string         `json:"reason"`
}

// PUT /v1/admin/parks/:slug/opening-hours
func (h *AdminFactsHandler) PutOpeningHours(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req openingHoursReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	facts := make([]domain.OpeningHourFact, 0, len(req.Items))
	rows := make([]*types.OpeningHour, 0, len(req.Items))
	for _, item := range req.Items {
		facts = append(facts, domain.OpeningHourFact{
			Dow:       item.Dow,
			OpenTime:  item.OpenTime,
			CloseTime: item.CloseTime,
			IsClosed:  item.IsClosed,
			Note:      item.Note,
		})
		rows = append(rows, &types.OpeningHour{
			ParkID:    park.ID,
			Dow:       item.Dow,
			OpenTime:  item.OpenTime,
			CloseTime: item.CloseTime,
			IsClosed:  item.IsClosed,
			Note:      item.Note,
		})
	}
	if err := domain.ValidateOpeningHours(facts); err != nil {
		RespondAppError(c, err)
		return
	}

	err := h.replaceSection(c.Request.Context(), park, "park_opening_hour", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetOpeningHours(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceOpeningHours(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type transportIn struct {
	Kind string `json:"kind" binding:"required"`
	Text string `json:"text" binding:"required"`
}

type transportReplaceRequest struct {
	Items  []transportIn `json:"items"`
	Reason *string       `json:"reason"`
}

// PUT /v1/admin/parks/:slug/transport
func (h *AdminFactsHandler) PutTransport(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req transportReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	rows := make([]*types.TransportNote, 0, len(req.Items))
	for _, item := range req.Items {
		rows = append(rows, &types.TransportNote{ParkID: park.ID, Kind: item.Kind, Text: item.Text})
	}

	err := h.replaceSection(c.Request.Context(), park, "park_transport", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetTransport(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceTransport(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type sitePageIn struct {
	Key         string  `json:"key" binding:"required"`
	Path        *string `json:"path"`
	AbsoluteURL *string `json:"absolute_url"`
}

type sitePagesReplaceRequest struct {
	Items  []sitePageIn `json:"items"`
	Reason *string      `json:"reason"`
}

// PUT /v1/admin/parks/:slug/site-pages
func (h *AdminFactsHandler) PutSitePages(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req sitePagesReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	rows := make([]*types.SitePage, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Path != nil && !strings.HasPrefix(*item.Path, "/") {
			RespondAppError(c, apierr.Invalid("site page path must start with '/': %q", *item.Path))
			return
		}
		rows = append(rows, &types.SitePage{
			ParkID:      park.ID,
			Key:         item.Key,
			Path:        item.Path,
			AbsoluteURL: item.AbsoluteURL,
		})
	}

	err := h.replaceSection(c.Request.Context(), park, "site_page", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetSitePages(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceSitePages(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type legalDocumentIn struct {
	Key         string  `json:"key" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Path        *string `json:"path"`
	AbsoluteURL *string `json:"absolute_url"`
}

type legalDocumentsReplaceRequest struct {
	Items  []legalDocumentIn `json:"items"`
	Reason *string           `json:"reason"`
}

// PUT /v1/admin/parks/:slug/legal-documents
func (h *AdminFactsHandler) PutLegalDocuments(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req legalDocumentsReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	rows := make([]*types.LegalDocument, 0, len(req.Items))
	for _, item := range req.Items {
		rows = append(rows, &types.LegalDocument{
			ParkID:      park.ID,
			Key:         item.Key,
			Title:       item.Title,
			Path:        item.Path,
			AbsoluteURL: item.AbsoluteURL,
		})
	}

	err := h.replaceSection(c.Request.Context(), park, "legal_document", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetLegalDocuments(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceLegalDocuments(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type promotionIn struct {
	Key       string     `json:"key" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Text      string     `json:"text" binding:"required"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type promotionsReplaceRequest struct {
	Items  []promotionIn `json:"items"`
	Reason *string       `json:"reason"`
}

// PUT /v1/admin/parks/:slug/promotions
func (h *AdminFactsHandler) PutPromotions(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req promotionsReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	rows := make([]*types.Promotion, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ValidFrom != nil && item.ValidTo != nil && item.ValidFrom.After(*item.ValidTo) {
			RespondAppError(c, apierr.Invalid("promotion %q: valid_from must be <= valid_to", item.Key))
			return
		}
		rows = append(rows, &types.Promotion{
			ParkID:    park.ID,
			Key:       item.Key,
			Title:     item.Title,
			Text:      item.Text,
			ValidFrom: item.ValidFrom,
			ValidTo:   item.ValidTo,
			ExpiresAt: item.ExpiresAt,
		})
	}

	err := h.replaceSection(c.Request.Context(), park, "promotion", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetPromotions(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplacePromotions(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type faqIn struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type faqReplaceRequest struct {
	Items  []faqIn `json:"items"`
	Reason *string `json:"reason"`
}

// PUT /v1/admin/parks/:slug/faq
func (h *AdminFactsHandler) PutFAQ(c *gin.Context) {
	park := h.park(c)
	if park == nil {
		return
	}
	var req faqReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	rows := make([]*types.FAQEntry, 0, len(req.Items))
	for _, item := range req.Items {
		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		rows = append(rows, &types.FAQEntry{
			ParkID:   park.ID,
			Question: item.Question,
			Answer:   item.Answer,
			IsActive: active,
		})
	}

	err := h.replaceSection(c.Request.Context(), park, "faq_entry", adminActor(c), req.Reason,
		func(ctx context.Context, tx *gorm.DB) (any, error) {
			return h.facts.GetFAQ(ctx, tx, park.ID)
		},
		func(ctx context.Context, tx *gorm.DB) error {
			return h.facts.ReplaceFAQ(ctx, tx, park.ID, rows)
		},
		req.Items,
	)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

// replaceSection runs one category replacement: snapshot the rows being
// overwritten, apply the replacement, and append the audit entry, all
// inside one transaction.
func (h *AdminFactsHandler) replaceSection(
	ctx context.Context,
	park *types.Park,
	entityTable string,
	actor string,
	reason *string,
	loadBefore func(ctx context.Context, tx *gorm.DB) (any, error),
	replace func(ctx context.Context, tx *gorm.DB) error,
	after any,
) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := loadBefore(ctx, tx)
		if err != nil {
			return err
		}
		if err := replace(ctx, tx); err != nil {
			return err
		}
		parkID := park.ID
		return h.changes.Append(ctx, tx, &types.ChangeLog{
			ParkID:      &parkID,
			Actor:       actor,
			EntityTable: entityTable,
			Action:      "replace",
			BeforeJSON:  toJSON(before),
			AfterJSON:   toJSON(after),
			Reason:      reason,
		})
	})
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte("null"))
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(raw)
}
