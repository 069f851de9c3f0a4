package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/api/schemas"
	"github.com/pitchlense/pitchlense/pkg/api/services/uploads"
	"github.com/pitchlense/pitchlense/pkg/db/models"
)

// GetFileInput identifies one stored file
type GetFileInput struct {
	FileID string `path:"fileId" doc:"File ID"`
}

// GetDownloadURLOutput carries a presigned download link
type GetDownloadURLOutput struct {
	Body schemas.DownloadURLResponse
}

// DeleteFileOutput reports the file delete outcome
type DeleteFileOutput struct {
	Body schemas.DeleteFileResponse
}

// ListReportFilesInput identifies a report whose files to list
type ListReportFilesInput struct {
	ReportID string `path:"reportId" doc:"Report ID"`
}

// ListReportFilesOutput lists a report's files with download links
type ListReportFilesOutput struct {
	Body schemas.ReportFilesResponse
}

// RegisterUploads registers file-level routes
func RegisterUploads(api huma.API, svc *uploads.Service) {
	// Get download URL
	huma.Register(api, huma.Operation{
		OperationID: "get-download-url",
		Method:      http.MethodGet,
		Path:        "/api/v1/uploads/{fileId}/download-url",
		Summary:     "Get file download URL",
		Description: "Get a time-limited presigned URL for one stored file",
		Tags:        []string{"Uploads"},
	}, func(ctx context.Context, input *GetFileInput) (*GetDownloadURLOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("upload service not configured")
		}

		fileID, err := uuid.Parse(input.FileID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid file ID")
		}

		upload, url, err := svc.DownloadURL(ctx, fileID)
		if err != nil {
			return nil, mapError(err, "file not found")
		}

		return &GetDownloadURLOutput{Body: schemas.DownloadURLResponse{
			FileID:      upload.FileID.String(),
			Filename:    upload.Filename,
			DownloadURL: url,
			ExpiresIn:   uploads.DownloadURLExpiry.String(),
		}}, nil
	})

	// Delete file
	huma.Register(api, huma.Operation{
		OperationID: "delete-file",
		Method:      http.MethodDelete,
		Path:        "/api/v1/uploads/{fileId}",
		Summary:     "Delete a file",
		Description: "Remove one file from storage and the database",
		Tags:        []string{"Uploads"},
	}, func(ctx context.Context, input *GetFileInput) (*DeleteFileOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("upload service not configured")
		}

		fileID, err := uuid.Parse(input.FileID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid file ID")
		}

		blobDeleted, err := svc.Delete(ctx, fileID)
		if err != nil {
			return nil, mapError(err, "file not found")
		}

		message := "File deleted successfully"
		if !blobDeleted {
			message = "File record deleted; the stored object could not be removed"
		}
		return &DeleteFileOutput{Body: schemas.DeleteFileResponse{
			Message:     message,
			BlobDeleted: blobDeleted,
		}}, nil
	})

	// List report files
	huma.Register(api, huma.Operation{
		OperationID: "list-report-files",
		Method:      http.MethodGet,
		Path:        "/api/v1/uploads/report/{reportId}",
		Summary:     "List a report's files",
		Description: "List all files belonging to a report with presigned download URLs",
		Tags:        []string{"Uploads"},
	}, func(ctx context.Context, input *ListReportFilesInput) (*ListReportFilesOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("upload service not configured")
		}

		reportID, err := uuid.Parse(input.ReportID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid report ID")
		}

		files, err := svc.ListByReport(ctx, reportID)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		resp := &ListReportFilesOutput{}
		resp.Body.ReportID = reportID.String()
		resp.Body.Files = make([]schemas.ReportFileResponse, 0, len(files))
		for _, f := range files {
			entry := schemas.ReportFileResponse{
				UploadResponse: toUploadResponse(f.Upload),
				DownloadURL:    f.DownloadURL,
			}
			if f.Err != nil {
				entry.Error = "download URL unavailable"
			}
			resp.Body.Files = append(resp.Body.Files, entry)
		}
		resp.Body.TotalFiles = len(files)
		return resp, nil
	})
}

// toUploadResponse converts an upload row to its API shape
func toUploadResponse(upload *models.Upload) schemas.UploadResponse {
	return schemas.UploadResponse{
		FileID:     upload.FileID.String(),
		ReportID:   upload.ReportID.String(),
		Filename:   upload.Filename,
		FileFormat: upload.FileFormat,
		UploadPath: upload.UploadPath,
		CreatedAt:  upload.CreatedAt.Format(time.RFC3339),
	}
}
