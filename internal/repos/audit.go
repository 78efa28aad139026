package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type ChangeLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, entry *types.ChangeLog) error
	ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.ChangeLog, error)
}

type changeLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeLogRepo(db *gorm.DB, baseLog *logger.Logger) ChangeLogRepo {
	return &changeLogRepo{db: db, log: baseLog.With("repo", "ChangeLogRepo")}
}

func (r *changeLogRepo) Append(ctx context.Context, tx *gorm.DB, entry *types.ChangeLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *changeLogRepo) ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.ChangeLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ChangeLog
	err := transaction.WithContext(ctx).
		Where("park_id = ?", parkID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type EventLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, entry *types.EventLog) error
	CountByName(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, eventName string) (int64, error)
}

type eventLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventLogRepo(db *gorm.DB, baseLog *logger.Logger) EventLogRepo {
	return &eventLogRepo{db: db, log: baseLog.With("repo", "EventLogRepo")}
}

func (r *eventLogRepo) Append(ctx context.Context, tx *gorm.DB, entry *types.EventLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *eventLogRepo) CountByName(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, eventName string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.EventLog{}).
		Where("park_id = ? AND event_name = ?", parkID, eventName).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
