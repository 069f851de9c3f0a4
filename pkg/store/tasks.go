package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/uptrace/bun"
)

type taskStore struct {
	db *bun.DB
}

func (s *taskStore) CreateWithReport(ctx context.Context, report *models.Report, task *models.Task, files []*models.TaskFile) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(report).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(task).Exec(ctx); err != nil {
			return err
		}
		if len(files) > 0 {
			if _, err := tx.NewInsert().Model(&files).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *taskStore) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	task := new(models.Task)
	err := s.db.NewSelect().
		Model(task).
		Relation("Files", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("t.task_id = ?", taskID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskStore) Claim(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*models.Task)(nil)).
		Set("state = ?", models.TaskStateRunning).
		Set("started_at = ?", now).
		Where("task_id = ?", taskID).
		Where("state = ?", models.TaskStateQueued).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrTaskClaimed
	}
	return s.Get(ctx, taskID)
}

func (s *taskStore) Finish(ctx context.Context, taskID uuid.UUID) error {
	now := time.Now()
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Task)(nil)).
			Set("state = ?", models.TaskStateSucceeded).
			Set("finished_at = ?", now).
			Where("task_id = ?", taskID).
			Exec(ctx); err != nil {
			return err
		}

		// Staged bytes are no longer needed once uploads are in blob storage
		_, err := tx.NewDelete().
			Model((*models.TaskFile)(nil)).
			Where("task_id = ?", taskID).
			Exec(ctx)
		return err
	})
}

func (s *taskStore) Fail(ctx context.Context, taskID uuid.UUID, reason string) error {
	now := time.Now()
	_, err := s.db.NewUpdate().
		Model((*models.Task)(nil)).
		Set("state = ?", models.TaskStateFailed).
		Set("error = ?", reason).
		Set("finished_at = ?", now).
		Where("task_id = ?", taskID).
		Exec(ctx)
	return err
}

func (s *taskStore) ListQueuedIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.NewSelect().
		Model((*models.Task)(nil)).
		Column("task_id").
		Where("state = ?", models.TaskStateQueued).
		Order("created_at ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *taskStore) ListRunningBefore(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.db.NewSelect().
		Model(&tasks).
		Where("t.state = ?", models.TaskStateRunning).
		Where("t.started_at < ?", cutoff).
		Order("started_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

var _ TaskStore = (*taskStore)(nil)
