package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskState is the lifecycle of a background processing task.
type TaskState string

const (
	TaskStateQueued    TaskState = "queued"
	TaskStateRunning   TaskState = "running"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateFailed    TaskState = "failed"
)

// Task is the durable record of one background processing run: upload the
// staged files, record upload rows, trigger the external analysis job.
// It is committed in the same transaction as its report, so a crash between
// "report created" and "worker picked it up" loses nothing.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	TaskID   uuid.UUID `bun:"task_id,type:uuid,pk"`
	ReportID uuid.UUID `bun:"report_id,type:uuid,notnull"`
	State    TaskState `bun:",notnull,default:'queued'"`
	Error    string    `bun:",nullzero"`

	CreatedAt  time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
	StartedAt  *time.Time `bun:",nullzero"`
	FinishedAt *time.Time `bun:",nullzero"`

	Files []*TaskFile `bun:"rel:has-many,join:task_id=task_id"`
}

// TaskFile stages one submitted file's bytes until the worker has written
// them to blob storage. Position preserves strict input order.
type TaskFile struct {
	bun.BaseModel `bun:"table:task_files,alias:tf"`

	FileID      uuid.UUID `bun:"file_id,type:uuid,pk"`
	TaskID      uuid.UUID `bun:"task_id,type:uuid,notnull"`
	Position    int       `bun:",notnull"`
	Filename    string    `bun:",notnull"`
	Category    string    `bun:",notnull"`
	ContentType string    `bun:",notnull"`
	Data        []byte    `bun:"data,type:bytea,notnull"`
}
