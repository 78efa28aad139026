package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type KBSourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, source *types.KBSource) (*types.KBSource, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBSource, error)
	List(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.KBSource, error)
	ListEnabled(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.KBSource, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	UpdateFetched(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash, contentType string, fetchedAt time.Time) error
	EnsureByLocation(ctx context.Context, tx *gorm.DB, source *types.KBSource) (*types.KBSource, error)
}

type kbSourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKBSourceRepo(db *gorm.DB, baseLog *logger.Logger) KBSourceRepo {
	return &kbSourceRepo{db: db, log: baseLog.With("repo", "KBSourceRepo")}
}

func (r *kbSourceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *kbSourceRepo) Create(ctx context.Context, tx *gorm.DB, source *types.KBSource) (*types.KBSource, error) {
	if err := r.conn(tx).WithContext(ctx).Create(source).Error; err != nil {
		return nil, err
	}
	return source, nil
}

func (r *kbSourceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBSource, error) {
	var source types.KBSource
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&source).Error
	if err != nil {
		return nil, err
	}
	if source.ID == uuid.Nil {
		return nil, nil
	}
	return &source, nil
}

func (r *kbSourceRepo) List(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.KBSource, error) {
	var out []*types.KBSource
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *kbSourceRepo) ListEnabled(ctx context.Context, tx *gorm.DB, parkID uuid.UUID) ([]*types.KBSource, error) {
	var out []*types.KBSource
	err := r.conn(tx).WithContext(ctx).
		Where("park_id = ? AND enabled = true", parkID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *kbSourceRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBSource{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *kbSourceRepo) UpdateFetched(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash, contentType string, fetchedAt time.Time) error {
	updates := map[string]interface{}{
		"last_hash":       hash,
		"last_fetched_at": fetchedAt,
	}
	if contentType != "" {
		updates["content_type"] = contentType
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBSource{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// EnsureByLocation finds an existing source with the same URL or file
// path for the park, creating it when absent. Seeding and repeated
// admin imports stay idempotent through this.
func (r *kbSourceRepo) EnsureByLocation(ctx context.Context, tx *gorm.DB, source *types.KBSource) (*types.KBSource, error) {
	conn := r.conn(tx).WithContext(ctx)
	q := conn.Where("park_id = ? AND source_type = ?", source.ParkID, source.SourceType)
	switch {
	case source.SourceURL != nil:
		q = q.Where("source_url = ?", *source.SourceURL)
	case source.FilePath != nil:
		q = q.Where("file_path = ?", *source.FilePath)
	}
	var existing types.KBSource
	if err := q.Limit(1).Find(&existing).Error; err != nil {
		return nil, err
	}
	if existing.ID != uuid.Nil {
		return &existing, nil
	}
	if err := conn.Create(source).Error; err != nil {
		return nil, err
	}
	return source, nil
}
