// Package uploads serves individual stored files: download links, listing
// by report, and deletion.
package uploads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
)

// DownloadURLExpiry bounds how long a presigned link stays valid.
const DownloadURLExpiry = time.Hour

// ErrBlobMissing means the row exists but the object is gone from storage.
var ErrBlobMissing = errors.New("file not found in storage")

// FileWithURL pairs an upload row with its presigned link. Err is set when
// the link could not be generated; the row is still returned.
type FileWithURL struct {
	*models.Upload
	DownloadURL string
	Err         error
}

// Service owns upload-level operations.
type Service struct {
	uploads store.UploadStore
	blobs   blob.Store
	log     *applog.Logger
}

// NewService wires the uploads service.
func NewService(stores *store.Stores, blobs blob.Store, log *applog.Logger) *Service {
	return &Service{
		uploads: stores.Uploads,
		blobs:   blobs,
		log:     log.Component("uploads"),
	}
}

// DownloadURL returns a presigned link for one file after verifying the
// blob still exists.
func (s *Service) DownloadURL(ctx context.Context, fileID uuid.UUID) (*models.Upload, string, error) {
	upload, err := s.uploads.Get(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	uri, err := blob.ParseURI(upload.UploadPath)
	if err != nil {
		return nil, "", err
	}

	exists, err := s.blobs.Exists(ctx, uri.Key)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", ErrBlobMissing
	}

	url, err := s.blobs.PresignedGetURL(ctx, uri.Key, DownloadURLExpiry)
	if err != nil {
		return nil, "", err
	}

	return upload, url, nil
}

// Delete removes a file from storage and the database. A blob failure is
// reported but does not keep the row.
func (s *Service) Delete(ctx context.Context, fileID uuid.UUID) (blobDeleted bool, err error) {
	upload, err := s.uploads.Get(ctx, fileID)
	if err != nil {
		return false, err
	}

	blobDeleted = true
	if uri, err := blob.ParseURI(upload.UploadPath); err == nil {
		if err := s.blobs.Delete(ctx, uri.Key); err != nil {
			s.log.Warn("blob delete failed", "file_id", fileID, "error", err)
			blobDeleted = false
		}
	} else {
		s.log.Warn("upload has malformed path", "file_id", fileID, "path", upload.UploadPath)
		blobDeleted = false
	}

	if err := s.uploads.Delete(ctx, fileID); err != nil {
		return blobDeleted, err
	}

	return blobDeleted, nil
}

// ListByReport returns a report's files with presigned links. A link
// failure degrades that one entry instead of failing the listing.
func (s *Service) ListByReport(ctx context.Context, reportID uuid.UUID) ([]FileWithURL, error) {
	rows, err := s.uploads.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	files := make([]FileWithURL, 0, len(rows))
	for _, u := range rows {
		entry := FileWithURL{Upload: u}

		uri, err := blob.ParseURI(u.UploadPath)
		if err == nil {
			entry.DownloadURL, err = s.blobs.PresignedGetURL(ctx, uri.Key, DownloadURLExpiry)
		}
		if err != nil {
			entry.Err = err
		}

		files = append(files, entry)
	}

	return files, nil
}
