package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/repos"
	"github.com/jucity/ai-manager-backend/internal/services"
)

// Worker polls for queued reindex jobs and runs them one at a time per
// process. Claiming uses FOR UPDATE SKIP LOCKED, so multiple instances
// never pick up the same job.
type Worker struct {
	db      *gorm.DB
	log     *logger.Logger
	jobs    repos.KBJobRepo
	indexer services.KBIndexerService
	poll    time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, jobs repos.KBJobRepo, indexer services.KBIndexerService) *Worker {
	return &Worker{
		db:      db,
		log:     baseLog.With("component", "KBJobWorker"),
		jobs:    jobs,
		indexer: indexer,
		poll:    1 * time.Second,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

func (w *Worker) tick(ctx context.Context) {
	job, err := w.jobs.ClaimNextQueued(ctx, w.db)
	if err != nil {
		w.log.Warn("ClaimNextQueued failed", "error", err)
		return
	}
	if job == nil {
		return
	}

	w.log.Info("reindex job claimed", "job_id", job.ID, "park_id", job.ParkID)

	// A panicking build must still release the single-flight slot.
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("reindex job panic", "job_id", job.ID, "panic", r)
				if err := w.jobs.SetFailed(ctx, nil, job.ID, fmt.Sprintf("panic: %v", r)); err != nil {
					w.log.Error("mark panicked job failed", "job_id", job.ID, "error", err)
				}
			}
		}()
		if err := w.indexer.RunJob(ctx, job); err != nil {
			w.log.Error("reindex job failed", "job_id", job.ID, "error", err)
		}
	}()
}
