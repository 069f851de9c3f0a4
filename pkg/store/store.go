// Package store provides persistence for reports, uploads and background
// tasks on top of bun/Postgres. The relational store is the single source
// of truth for lifecycle state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/uptrace/bun"
)

// Common errors
var (
	ErrNotFound    = errors.New("record not found")
	ErrTaskClaimed = errors.New("task already claimed")
)

// ReportFilter narrows List results. The API layer applies one mode at a
// time (pinned_only, then search, then status); the repository accepts any
// combination and ANDs them.
type ReportFilter struct {
	PinnedOnly     bool
	Search         string
	Status         models.ReportStatus // empty = any
	IncludeDeleted bool
}

// ReportStore persists reports.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error

	// Get returns a non-deleted report. Soft-deleted rows are invisible here.
	Get(ctx context.Context, reportID uuid.UUID) (*models.Report, error)

	// List returns one page plus the total count under the same filter.
	List(ctx context.Context, filter ReportFilter, skip, limit int) ([]*models.Report, int, error)

	// UpdateStatus moves a pending report to success or failed. Writes to
	// reports that already left pending are no-ops, keeping the worker's
	// and reaper's failure writes monotonic.
	UpdateStatus(ctx context.Context, reportID uuid.UUID, status models.ReportStatus) error

	// MarkSuccess records that the analysis artifact exists, whatever the
	// current status. A failed report can be revived by a late artifact,
	// e.g. when the trigger timed out but the compute job kept running.
	// No-op when already success, which makes reconciliation idempotent.
	MarkSuccess(ctx context.Context, reportID uuid.UUID) error

	// TogglePin flips is_pinned regardless of status.
	TogglePin(ctx context.Context, reportID uuid.UUID) (*models.Report, error)

	// SoftDelete tombstones a report and its uploads.
	SoftDelete(ctx context.Context, reportID uuid.UUID) (*models.Report, error)

	// HardDelete removes the row; uploads and tasks cascade via FK.
	HardDelete(ctx context.Context, reportID uuid.UUID) error

	// ListPendingBefore returns pending reports created before cutoff,
	// used by the reaper.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Report, error)
}

// UploadStore persists upload rows.
type UploadStore interface {
	Create(ctx context.Context, upload *models.Upload) error
	Get(ctx context.Context, fileID uuid.UUID) (*models.Upload, error)
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Upload, error)
	CountByReport(ctx context.Context, reportID uuid.UUID) (int, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// TaskStore persists background task records.
type TaskStore interface {
	// CreateWithReport commits the report, its task and the staged file
	// bytes in one transaction, so a submission is either fully durable or
	// not recorded at all.
	CreateWithReport(ctx context.Context, report *models.Report, task *models.Task, files []*models.TaskFile) error

	// Get loads a task with its files ordered by position.
	Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error)

	// Claim moves a queued task to running. Returns ErrTaskClaimed when
	// another worker got there first.
	Claim(ctx context.Context, taskID uuid.UUID) (*models.Task, error)

	// Finish marks a running task succeeded and drops its staged bytes.
	Finish(ctx context.Context, taskID uuid.UUID) error

	// Fail marks a task failed with a reason. Staged bytes are kept until
	// the report is hard-deleted.
	Fail(ctx context.Context, taskID uuid.UUID, reason string) error

	// ListQueuedIDs returns all queued task IDs, oldest first.
	ListQueuedIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListRunningBefore returns tasks stuck in running since before cutoff.
	ListRunningBefore(ctx context.Context, cutoff time.Time) ([]*models.Task, error)
}

// Stores bundles the bun-backed implementations.
type Stores struct {
	Reports ReportStore
	Uploads UploadStore
	Tasks   TaskStore
}

// New creates the repository set on a shared bun DB.
func New(db *bun.DB) *Stores {
	return &Stores{
		Reports: &reportStore{db: db},
		Uploads: &uploadStore{db: db},
		Tasks:   &taskStore{db: db},
	}
}
