package routes

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/api/schemas"
	"github.com/pitchlense/pitchlense/pkg/api/services/reports"
	"github.com/pitchlense/pitchlense/pkg/db/models"
)

// CreateReportInput is the multipart submission form
type CreateReportInput struct {
	RawBody multipart.Form
}

// CreateReportOutput is the response for a new submission
type CreateReportOutput struct {
	Body schemas.ReportResponse
}

// ListReportsInput defines the listing filters. Filter modes are mutually
// exclusive; precedence is pinned_only, search, status.
type ListReportsInput struct {
	Skip       int    `query:"skip" doc:"Rows to skip" required:"false"`
	Limit      int    `query:"limit" doc:"Page size (default 100)" required:"false"`
	Search     string `query:"search" doc:"Substring match over report, startup and founder names" required:"false"`
	Status     string `query:"status" doc:"Filter by status (pending, success, failed)" required:"false"`
	PinnedOnly bool   `query:"pinned_only" doc:"Only pinned reports" required:"false"`
}

// ListReportsOutput is one page of reports
type ListReportsOutput struct {
	Body schemas.ReportListResponse
}

// GetReportInput identifies one report
type GetReportInput struct {
	ReportID string `path:"reportId" doc:"Report ID"`
}

// GetReportOutput is a single reconciled report
type GetReportOutput struct {
	Body schemas.ReportResponse
}

// GetReportDataOutput carries the analysis result when available
type GetReportDataOutput struct {
	Body schemas.ReportDataResponse
}

// DeleteReportOutput reports the delete outcome
type DeleteReportOutput struct {
	Body schemas.DeleteReportResponse
}

// PinReportOutput reports the new pin state
type PinReportOutput struct {
	Body schemas.PinResponse
}

// RegisterReports registers the report lifecycle routes
func RegisterReports(api huma.API, svc *reports.Service) {
	// Submit a report
	huma.Register(api, huma.Operation{
		OperationID: "create-report",
		Method:      http.MethodPost,
		Path:        "/api/v1/reports",
		Summary:     "Submit a report",
		Description: "Accept startup details and files for analysis. The report is returned immediately as pending; uploads and analysis happen in the background.",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *CreateReportInput) (*CreateReportOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		form := input.RawBody
		startupName := formValue(form, "startup_name")
		founderName := formValue(form, "founder_name")
		launchDate := formValue(form, "launch_date")
		fileTypes := form.Value["file_types"]
		headers := form.File["files"]

		if len(headers) != len(fileTypes) {
			return nil, huma.Error400BadRequest("number of files must match number of file types")
		}

		maxSize := svc.MaxFileSize()
		files := make([]reports.SubmittedFile, 0, len(headers))
		for i, hdr := range headers {
			data, err := readFormFile(hdr, maxSize)
			if err != nil {
				return nil, huma.Error400BadRequest("could not read uploaded file: " + hdr.Filename)
			}
			files = append(files, reports.SubmittedFile{
				Filename:    hdr.Filename,
				Category:    fileTypes[i],
				ContentType: hdr.Header.Get("Content-Type"),
				Data:        data,
			})
		}

		report, err := svc.Create(ctx, startupName, founderName, launchDate, files)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		return &CreateReportOutput{Body: toReportResponse(report, len(files))}, nil
	})

	// List reports
	huma.Register(api, huma.Operation{
		OperationID: "list-reports",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports",
		Summary:     "List reports",
		Description: "Get one page of reports with the total count under the same filter",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *ListReportsInput) (*ListReportsOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		params := reports.ListParams{
			Skip:       input.Skip,
			Limit:      input.Limit,
			Search:     input.Search,
			Status:     models.ReportStatus(input.Status),
			PinnedOnly: input.PinnedOnly,
		}
		if input.Status != "" && !validStatus(input.Status) {
			return nil, huma.Error400BadRequest("invalid status: " + input.Status)
		}

		rows, total, err := svc.List(ctx, params)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		resp := &ListReportsOutput{}
		resp.Body.Reports = make([]schemas.ReportResponse, 0, len(rows))
		for _, row := range rows {
			resp.Body.Reports = append(resp.Body.Reports, toReportResponse(row.Report, row.FileCount))
		}
		resp.Body.Total = total
		resp.Body.Skip = params.Skip
		resp.Body.Limit = params.Limit
		if resp.Body.Limit <= 0 {
			resp.Body.Limit = 100
		}
		return resp, nil
	})

	// Get report
	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/{reportId}",
		Summary:     "Get report details",
		Description: "Get one report, reconciled against the analysis result location",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *GetReportInput) (*GetReportOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		reportID, err := uuid.Parse(input.ReportID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid report ID")
		}

		row, err := svc.Get(ctx, reportID)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		return &GetReportOutput{Body: toReportResponse(row.Report, row.FileCount)}, nil
	})

	// Get report data
	huma.Register(api, huma.Operation{
		OperationID: "get-report-data",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/{reportId}/data",
		Summary:     "Get analysis result",
		Description: "Get the analysis result for a successful report. Returns report metadata with a message while the result is not available.",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *GetReportInput) (*GetReportDataOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		reportID, err := uuid.Parse(input.ReportID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid report ID")
		}

		row, data, message, err := svc.Data(ctx, reportID)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		resp := &GetReportDataOutput{}
		resp.Body.Report = toReportResponse(row.Report, row.FileCount)
		resp.Body.Message = message
		if len(data) > 0 {
			resp.Body.Data = json.RawMessage(data)
		}
		return resp, nil
	})

	// Delete report
	huma.Register(api, huma.Operation{
		OperationID: "delete-report",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reports/{reportId}",
		Summary:     "Delete a report",
		Description: "Soft-delete a report and remove its stored files. Storage failures are reported but do not fail the delete.",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *GetReportInput) (*DeleteReportOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		reportID, err := uuid.Parse(input.ReportID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid report ID")
		}

		filesDeleted, partial, err := svc.Delete(ctx, reportID)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		message := "Report deleted successfully"
		if partial {
			message = "Report deleted; some files could not be removed from storage"
		}
		return &DeleteReportOutput{Body: schemas.DeleteReportResponse{
			Message:      message,
			FilesDeleted: filesDeleted,
		}}, nil
	})

	// Toggle pin
	huma.Register(api, huma.Operation{
		OperationID: "toggle-report-pin",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reports/{reportId}/pin",
		Summary:     "Toggle report pin",
		Description: "Flip the pin flag on a report",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *GetReportInput) (*PinReportOutput, error) {
		if svc == nil {
			return nil, huma.Error503ServiceUnavailable("report service not configured")
		}

		reportID, err := uuid.Parse(input.ReportID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid report ID")
		}

		report, err := svc.TogglePin(ctx, reportID)
		if err != nil {
			return nil, mapError(err, "report not found")
		}

		message := "Report unpinned"
		if report.IsPinned {
			message = "Report pinned"
		}
		return &PinReportOutput{Body: schemas.PinResponse{
			Message: message,
			Pinned:  report.IsPinned,
		}}, nil
	})
}

func formValue(form multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// readFormFile reads one uploaded file, buffering at most max+1 bytes. An
// oversized upload yields max+1 bytes so the size validation rejects it
// without the whole body ever sitting in memory.
func readFormFile(hdr *multipart.FileHeader, max int64) ([]byte, error) {
	f, err := hdr.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, max+1))
}

func validStatus(s string) bool {
	switch models.ReportStatus(s) {
	case models.ReportStatusPending, models.ReportStatusSuccess, models.ReportStatusFailed:
		return true
	}
	return false
}

// toReportResponse converts a report row to its API shape
func toReportResponse(report *models.Report, fileCount int) schemas.ReportResponse {
	return schemas.ReportResponse{
		ReportID:    report.ReportID.String(),
		ReportName:  report.ReportName,
		StartupName: report.StartupName,
		FounderName: report.FounderName,
		LaunchDate:  report.LaunchDate,
		Status:      string(report.Status),
		IsPinned:    report.IsPinned,
		ReportPath:  report.ReportPath,
		CreatedAt:   report.CreatedAt.Format(time.RFC3339),
		FileCount:   fileCount,
	}
}
