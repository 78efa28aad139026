package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

type KBJobRepo interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job *types.KBIndexJob) (*types.KBIndexJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBIndexJob, error)
	ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.KBIndexJob, error)
	ClaimNextQueued(ctx context.Context, tx *gorm.DB) (*types.KBIndexJob, error)
	SetRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SetSuccess(ctx context.Context, tx *gorm.DB, id uuid.UUID, stats datatypes.JSON) error
	SetFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errText string) error
}

type kbJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKBJobRepo(db *gorm.DB, baseLog *logger.Logger) KBJobRepo {
	return &kbJobRepo{db: db, log: baseLog.With("repo", "KBJobRepo")}
}

func (r *kbJobRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Enqueue inserts a queued job. The partial unique index on
// (park_id) WHERE status IN ('queued','running') turns a concurrent
// enqueue into a conflict error, which callers surface as HTTP 409.
func (r *kbJobRepo) Enqueue(ctx context.Context, tx *gorm.DB, job *types.KBIndexJob) (*types.KBIndexJob, error) {
	if err := r.conn(tx).WithContext(ctx).Create(job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("reindex already queued or running for park %s", job.ParkID)
		}
		return nil, err
	}
	return job, nil
}

func (r *kbJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KBIndexJob, error) {
	var job types.KBIndexJob
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *kbJobRepo) ListByPark(ctx context.Context, tx *gorm.DB, parkID uuid.UUID, limit int) ([]*types.KBIndexJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.KBIndexJob
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

// ClaimNextQueued picks the oldest queued job and flips it to running in
// one transaction, skipping rows other workers hold.
func (r *kbJobRepo) ClaimNextQueued(ctx context.Context, tx *gorm.DB) (*types.KBIndexJob, error) {
	transaction := r.conn(tx)
	var claimed *types.KBIndexJob
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.KBIndexJob
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", types.KBJobQueued).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		now := time.Now().UTC()
		if err := txx.Model(&types.KBIndexJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     types.KBJobRunning,
				"started_at": now,
			}).Error; err != nil {
			return err
		}
		job.Status = types.KBJobRunning
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *kbJobRepo) SetRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBIndexJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.KBJobRunning,
			"started_at": now,
		}).Error
}

func (r *kbJobRepo) SetSuccess(ctx context.Context, tx *gorm.DB, id uuid.UUID, stats datatypes.JSON) error {
	now := time.Now().UTC()
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBIndexJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      types.KBJobSuccess,
			"stats_json":  stats,
			"finished_at": now,
		}).Error
}

func (r *kbJobRepo) SetFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errText string) error {
	now := time.Now().UTC()
	return r.conn(tx).WithContext(ctx).
		Model(&types.KBIndexJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      types.KBJobFailed,
			"error_text":  errText,
			"finished_at": now,
		}).Error
}
