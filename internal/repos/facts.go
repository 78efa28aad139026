package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

// FactsRepo covers the live (editable) facts tables. Replace methods
// swap a park's whole category in one statement pair; callers wrap them
// in a transaction together with the audit write.
type FactsRepo interface {
	GetContacts(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.ParkContact, error)
	ReplaceContacts(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.ParkContact) error
	GetLocation(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) (*types.ParkLocation, error)
	UpsertLocation(ctx context.Context, tx *gorm.DB, row *types.ParkLocation) error
	GetOpeningHours(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.OpeningHour, error)
	ReplaceOpeningHours(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.OpeningHour) error
	GetTransport(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.TransportNote, error)
	ReplaceTransport(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.TransportNote) error
	GetSitePages(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.SitePage, error)
	ReplaceSitePages(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.SitePage) error
	GetLegalDocuments(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.LegalDocument, error)
	ReplaceLegalDocuments(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.LegalDocument) error
	GetPromotions(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.Promotion, error)
	ReplacePromotions(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.Promotion) error
	GetFAQ(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.FAQEntry, error)
	ReplaceFAQ(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.FAQEntry) error
}

type factsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactsRepo(db *gorm.DB, baseLog *logger.Logger) FactsRepo {
	return &factsRepo{db: db, log: baseLog.With("repo", "FactsRepo")}
}

func (r *factsRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *factsRepo) GetContacts(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.ParkContact, error) {
	var out []*types.ParkContact
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("is_primary DESC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceContacts(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.ParkContact) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.ParkContact{}, rows)
}

func (r *factsRepo) GetLocation(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) (*types.ParkLocation, error) {
	var row types.ParkLocation
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *factsRepo) UpsertLocation(ctx context.Context, tx *gorm.DB, row *types.ParkLocation) error {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Where("park_id = ?", row.ParkID).Delete(&types.ParkLocation{}).Error; err != nil {
		return err
	}
	return conn.Create(row).Error
}

func (r *factsRepo) GetOpeningHours(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.OpeningHour, error) {
	var out []*types.OpeningHour
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("dow ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceOpeningHours(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.OpeningHour) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.OpeningHour{}, rows)
}

func (r *factsRepo) GetTransport(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.TransportNote, error) {
	var out []*types.TransportNote
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceTransport(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.TransportNote) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.TransportNote{}, rows)
}

func (r *factsRepo) GetSitePages(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.SitePage, error) {
	var out []*types.SitePage
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("key ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceSitePages(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.SitePage) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.SitePage{}, rows)
}

func (r *factsRepo) GetLegalDocuments(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.LegalDocument, error) {
	var out []*types.LegalDocument
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("key ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceLegalDocuments(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.LegalDocument) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.LegalDocument{}, rows)
}

func (r *factsRepo) GetPromotions(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.Promotion, error) {
	var out []*types.Promotion
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplacePromotions(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.Promotion) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.Promotion{}, rows)
}

func (r *factsRepo) GetFAQ(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.FAQEntry, error) {
	var out []*types.FAQEntry
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factsRepo) ReplaceFAQ(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, rows []*types.FAQEntry) error {
	return replaceRows(ctx, r.conn(tx), parkID, &types.FAQEntry{}, rows)
}

func replaceRows[T any](ctx context.Context, conn *gorm.DB, parkID uuid.UUID, model *T, rows []*T) error {
	if err := conn.WithContext(ctx).Where("park_id = ?", parkID).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(&rows).Error
}
