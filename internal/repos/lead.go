package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type LeadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lead *types.Lead) (*types.Lead, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lead, error)
	GetOpenBySession(ctx context.Context, tx *gorm.DB, parkID, sessionID uuid.UUID) (*types.Lead, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, status string, limit int) ([]*types.Lead, error)
	MarkAdminNotified(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string) (bool, error)
}

type leadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
	return &leadRepo{db: db, log: baseLog.With("repo", "LeadRepo")}
}

func (r *leadRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *leadRepo) Create(ctx context.Context, tx *gorm.DB, lead *types.Lead) (*types.Lead, error) {
	if err := r.conn(tx).WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lead, error) {
	var lead types.Lead
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == uuid.Nil {
		return nil, nil
	}
	return &lead, nil
}

func (r *leadRepo) GetOpenBySession(ctx context.Context, tx *gorm.DB, parkID, sessionID uuid.UUID) (*types.Lead, error) {
	var lead types.Lead
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ? AND session_id = ? AND status = ?", parkID, sessionID, types.LeadOpen).
		Limit(1).
		Find(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == uuid.Nil {
		return nil, nil
	}
	return &lead, nil
}

func (r *leadRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Lead{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *leadRepo) ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, status string, limit int) ([]*types.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("updated_at DESC").
		Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Lead
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAdminNotified records the notification hash, but only when it
// differs from the stored one. Returns true when the caller won the
// right to send; identical payloads are deduplicated.
func (r *leadRepo) MarkAdminNotified(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&types.Lead{}).
		Where("id = ? AND (admin_notified_hash IS NULL OR admin_notified_hash <> ?)", id, hash).
		Update("admin_notified_hash", hash)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
