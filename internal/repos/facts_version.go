package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type FactsVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.FactsVersion) (*types.FactsVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FactsVersion, error)
	ListPublished(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.FactsVersion, error)
	GetPreviousPublished(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, before time.Time) (*types.FactsVersion, error)
	GetPointer(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) (*types.ParkPublishedState, error)
	SetPointer(ctx context.Context, tx *gorm.DB, parkID, versionID uuid.UUID) error
}

type factsVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactsVersionRepo(db *gorm.DB, baseLog *logger.Logger) FactsVersionRepo {
	return &factsVersionRepo{db: db, log: baseLog.With("repo", "FactsVersionRepo")}
}

func (r *factsVersionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *factsVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.FactsVersion) (*types.FactsVersion, error) {
	if err := r.conn(tx).WithContext(ctx).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (r *factsVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FactsVersion, error) {
	var version types.FactsVersion
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *factsVersionRepo) ListPublished(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.FactsVersion, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.FactsVersion
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ? AND status = ?", parkID, types.FactsVersionPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetPreviousPublished finds the newest published version strictly older
// than the given publish time. Rollback walks exactly one step back
// through this.
func (r *factsVersionRepo) GetPreviousPublished(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, before time.Time) (*types.FactsVersion, error) {
	var version types.FactsVersion
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ? AND status = ? AND published_at < ?", parkID, types.FactsVersionPublished, before).
		Order("published_at DESC").
		Limit(1).
		Find(&version).Error
	if err != nil {
		return nil, err
	}
	if version.ID == uuid.Nil {
		return nil, nil
	}
	return &version, nil
}

func (r *factsVersionRepo) GetPointer(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) (*types.ParkPublishedState, error) {
	var state types.ParkPublishedState
	err := r.conn(tx).WithContext(ctx).Where("park_id = ?", parkID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *factsVersionRepo) SetPointer(ctx context.Context, tx *gorm.DB, parkID, versionID uuid.UUID) error {
	state := types.ParkPublishedState{
		ParkID:             parkID,
		PublishedVersionID: versionID,
		UpdatedAt:          time.Now().UTC(),
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "park_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"published_version_id", "updated_at"}),
		}).
		Create(&state).Error
}
