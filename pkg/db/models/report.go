package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReportStatus is the lifecycle state of a report. Transitions are
// monotonic: pending -> success (artifact detected) or pending -> failed
// (background processing error). success and failed are terminal.
type ReportStatus string

const (
	ReportStatusPending ReportStatus = "pending"
	ReportStatusSuccess ReportStatus = "success"
	ReportStatusFailed  ReportStatus = "failed"
)

// Report is one startup evaluation request and its lifecycle.
type Report struct {
	bun.BaseModel `bun:"table:reports,alias:r"`

	ReportID    uuid.UUID    `bun:"report_id,type:uuid,pk"`
	ReportName  string       `bun:",notnull"`
	StartupName string       `bun:",notnull"`
	FounderName string       `bun:",notnull"`
	LaunchDate  string       `bun:",nullzero"`
	Status      ReportStatus `bun:",notnull,default:'pending'"`
	IsDelete    bool         `bun:",notnull,default:false"`
	IsPinned    bool         `bun:",notnull,default:false"`

	// ReportPath is the URI the external analysis job writes its result
	// artifact to. Derived from the report ID at creation, before the
	// artifact exists.
	ReportPath string `bun:",nullzero"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`

	Uploads []*Upload `bun:"rel:has-many,join:report_id=report_id"`
}

// Resolved reports whether the analysis result is settled. Failed is not
// resolved for good: a late artifact can still flip it to success.
func (s ReportStatus) Resolved() bool {
	return s == ReportStatusSuccess
}
