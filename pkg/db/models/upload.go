package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Upload is one stored pitch file, owned by a report. A row exists only
// after the file was written to blob storage; UploadPath is never empty.
type Upload struct {
	bun.BaseModel `bun:"table:uploads,alias:up"`

	FileID     uuid.UUID `bun:"file_id,type:uuid,pk"`
	ReportID   uuid.UUID `bun:"report_id,type:uuid,notnull"`
	Filename   string    `bun:",notnull"`
	FileFormat string    `bun:",notnull"` // caller-supplied category tag, not a MIME type
	UploadPath string    `bun:",notnull"`
	IsDelete   bool      `bun:",notnull,default:false"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`

	Report *Report `bun:"rel:belongs-to,join:report_id=report_id"`
}

// Extension returns the filename extension without the dot, lowercased.
func (u *Upload) Extension() string {
	i := strings.LastIndex(u.Filename, ".")
	if i < 0 || i == len(u.Filename)-1 {
		return ""
	}
	return strings.ToLower(u.Filename[i+1:])
}
