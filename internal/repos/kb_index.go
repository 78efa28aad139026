package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type KBIndexRepo interface {
	Create(ctx context.Context, tx *gorm.DB, index *types.KBIndex) (*types.KBIndex, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBIndex, error)
	Activate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.KBIndex, error)
}

type kbIndexRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKBIndexRepo(db *gorm.DB, baseLog *logger.Logger) KBIndexRepo {
	return &kbIndexRepo{db: db, log: baseLog.With("repo", "KBIndexRepo")}
}

func (r *kbIndexRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *kbIndexRepo) Create(ctx context.Context, tx *gorm.DB, index *types.KBIndex) (*types.KBIndex, error) {
	if err := r.conn(tx).WithContext(ctx).Create(index).Error; err != nil {
		return nil, err
	}
	return index, nil
}

func (r *kbIndexRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBIndex, error) {
	var index types.KBIndex
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&index).Error
	if err != nil {
		return nil, err
	}
	if index.ID == uuid.Nil {
		return nil, nil
	}
	return &index, nil
}

func (r *kbIndexRepo) Activate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBIndex{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       "active",
			"activated_at": now,
		}).Error
}

func (r *kbIndexRepo) ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.KBIndex, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.KBIndex
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
