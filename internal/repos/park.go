package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type ParkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, park *types.Park) (*types.Park, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Park, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Park, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Park, error)
	SetActiveKBIndex(ctx context.Context, tx *gorm.DB, parkID, indexID uuid.UUID) error
}

type parkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParkRepo(db *gorm.DB, baseLog *logger.Logger) ParkRepo {
	return &parkRepo{db: db, log: baseLog.With("repo", "ParkRepo")}
}

func (r *parkRepo) Create(ctx context.Context, tx *gorm.DB, park *types.Park) (*types.Park, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(park).Error; err != nil {
		return nil, err
	}
	return park, nil
}

func (r *parkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Park, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var park types.Park
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&park).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &park, nil
}

func (r *parkRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Park, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var park types.Park
	err := transaction.WithContext(ctx).Where("slug = ?", slug).First(&park).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &park, nil
}

func (r *parkRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Park, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Park
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *parkRepo) SetActiveKBIndex(ctx context.Context, tx *gorm.DB, parkID, indexID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Park{}).
		Where("id = ?", parkID).
		Update("active_kb_index_id", indexID).Error
}
