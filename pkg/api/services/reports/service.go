// Package reports implements report submission, reconciliation and the
// lifecycle query surface.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
	"github.com/pitchlense/pitchlense/pkg/task"
)

// Options carries the submission limits and allow-lists.
type Options struct {
	MaxFileSize         int64
	AllowedContentTypes []string
	AllowedCategories   []string
	ArtifactRoot        string
}

// SubmittedFile is one file from a create-report request, fully read into
// memory (bounded by the size cap).
type SubmittedFile struct {
	Filename    string
	Category    string
	ContentType string
	Data        []byte
}

// ReportWithCount pairs a report row with its derived file count.
type ReportWithCount struct {
	*models.Report
	FileCount int
}

// ListParams selects one filter mode for listing. Precedence when several
// are set: pinned_only, then search, then status.
type ListParams struct {
	Skip       int
	Limit      int
	Search     string
	Status     models.ReportStatus
	PinnedOnly bool
}

// Service owns the report lifecycle.
type Service struct {
	reports store.ReportStore
	uploads store.UploadStore
	tasks   store.TaskStore
	blobs   blob.Store
	queue   task.Queue
	log     *applog.Logger
	opts    Options

	allowedTypes      map[string]struct{}
	allowedCategories map[string]struct{}
}

// NewService wires the report service.
func NewService(
	stores *store.Stores,
	blobs blob.Store,
	queue task.Queue,
	log *applog.Logger,
	opts Options,
) *Service {
	allowedTypes := make(map[string]struct{}, len(opts.AllowedContentTypes))
	for _, t := range opts.AllowedContentTypes {
		allowedTypes[t] = struct{}{}
	}
	allowedCategories := make(map[string]struct{}, len(opts.AllowedCategories))
	for _, c := range opts.AllowedCategories {
		allowedCategories[c] = struct{}{}
	}

	return &Service{
		reports:           stores.Reports,
		uploads:           stores.Uploads,
		tasks:             stores.Tasks,
		blobs:             blobs,
		queue:             queue,
		log:               log.Component("reports"),
		opts:              opts,
		allowedTypes:      allowedTypes,
		allowedCategories: allowedCategories,
	}
}

// MaxFileSize returns the per-file size cap, so the transport layer can
// bound its reads before validation runs.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// Create validates a submission, durably records the report (pending) with
// its background task, nudges the workers, and returns immediately. Blob
// uploads and the analysis trigger happen later in the worker.
func (s *Service) Create(ctx context.Context, startupName, founderName, launchDate string, files []SubmittedFile) (*models.Report, error) {
	if err := s.validate(startupName, founderName, launchDate, files); err != nil {
		return nil, err
	}

	reportID := uuid.New()
	now := time.Now()

	report := &models.Report{
		ReportID:    reportID,
		ReportName:  fmt.Sprintf("%s_%s", startupName, now.Format("20060102_150405")),
		StartupName: startupName,
		FounderName: founderName,
		LaunchDate:  launchDate,
		Status:      models.ReportStatusPending,
		ReportPath:  s.blobs.URI(blob.ArtifactKey(s.opts.ArtifactRoot, reportID.String())),
		CreatedAt:   now,
	}

	t := &models.Task{
		TaskID:    uuid.New(),
		ReportID:  reportID,
		State:     models.TaskStateQueued,
		CreatedAt: now,
	}

	taskFiles := make([]*models.TaskFile, len(files))
	for i, f := range files {
		taskFiles[i] = &models.TaskFile{
			FileID:      uuid.New(),
			TaskID:      t.TaskID,
			Position:    i,
			Filename:    f.Filename,
			Category:    f.Category,
			ContentType: f.ContentType,
			Data:        f.Data,
		}
	}

	if err := s.tasks.CreateWithReport(ctx, report, t, taskFiles); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	// Best-effort nudge; the worker's database poll covers a lost one
	if err := s.queue.Enqueue(ctx, t.TaskID); err != nil {
		s.log.Warn("task nudge failed; poller will pick it up", "task_id", t.TaskID, "error", err)
	}

	s.log.Info("report created", "report_id", reportID, "name", report.ReportName, "files", len(files))
	return report, nil
}

func (s *Service) validate(startupName, founderName, launchDate string, files []SubmittedFile) error {
	if startupName == "" || founderName == "" || launchDate == "" {
		return validationErrorf("startup_name, founder_name, and launch_date are required")
	}
	if len(files) == 0 {
		return validationErrorf("at least one file must be uploaded")
	}

	for _, f := range files {
		if f.Category == "" {
			return validationErrorf("number of files must match number of file types")
		}
		if _, ok := s.allowedCategories[f.Category]; !ok {
			return validationErrorf("invalid file type: %s. Allowed types: %v", f.Category, s.opts.AllowedCategories)
		}
		if _, ok := s.allowedTypes[f.ContentType]; !ok {
			return validationErrorf("file type %s not allowed. Allowed types: %v", f.ContentType, s.opts.AllowedContentTypes)
		}
		if int64(len(f.Data)) > s.opts.MaxFileSize {
			return validationErrorf("file %s is too large. Maximum size: %dMB", f.Filename, s.opts.MaxFileSize/(1024*1024))
		}
	}

	return nil
}

// Get returns one report, reconciled against the artifact location.
func (s *Service) Get(ctx context.Context, reportID uuid.UUID) (*ReportWithCount, error) {
	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, report)

	count, err := s.uploads.CountByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return &ReportWithCount{Report: report, FileCount: count}, nil
}

// List returns one page of reports plus the total under the same filter.
// Every row is reconciled; listing never downloads artifact content.
func (s *Service) List(ctx context.Context, params ListParams) ([]*ReportWithCount, int, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	// Filter modes are mutually exclusive
	filter := store.ReportFilter{}
	switch {
	case params.PinnedOnly:
		filter.PinnedOnly = true
	case params.Search != "":
		filter.Search = params.Search
	case params.Status != "":
		filter.Status = params.Status
	}

	rows, total, err := s.reports.List(ctx, filter, params.Skip, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*ReportWithCount, 0, len(rows))
	for _, report := range rows {
		s.reconcile(ctx, report)

		count, err := s.uploads.CountByReport(ctx, report.ReportID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, &ReportWithCount{Report: report, FileCount: count})
	}

	return out, total, nil
}

// Data returns the analysis result for a successful report. When the
// report is not ready, or the artifact fetch fails, it degrades to row
// metadata with an explanatory message rather than failing the request.
func (s *Service) Data(ctx context.Context, reportID uuid.UUID) (*ReportWithCount, []byte, string, error) {
	row, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, nil, "", err
	}

	switch row.Status {
	case models.ReportStatusPending:
		return row, nil, "Report is still being processed", nil
	case models.ReportStatusFailed:
		return row, nil, "Report processing failed", nil
	}

	uri, err := blob.ParseURI(row.ReportPath)
	if err != nil {
		s.log.Warn("report has malformed artifact path", "report_id", reportID, "path", row.ReportPath)
		return row, nil, "Report data is unavailable", nil
	}

	data, err := s.blobs.GetBytes(ctx, uri.Key)
	if err != nil {
		// Artifact gone or storage hiccup: serve metadata instead
		s.log.Warn("artifact fetch failed", "report_id", reportID, "error", err)
		return row, nil, "Report data is unavailable", nil
	}

	return row, data, "", nil
}

// Delete soft-deletes a report and best-effort removes its blobs. Blob
// failures never fail the delete; they are reported in the outcome.
func (s *Service) Delete(ctx context.Context, reportID uuid.UUID) (filesDeleted int, partial bool, err error) {
	// Capture the upload list before the tombstone hides it
	uploads, err := s.uploads.ListByReport(ctx, reportID)
	if err != nil {
		return 0, false, err
	}

	if _, err := s.reports.SoftDelete(ctx, reportID); err != nil {
		return 0, false, err
	}

	for _, u := range uploads {
		uri, err := blob.ParseURI(u.UploadPath)
		if err != nil {
			s.log.Warn("upload has malformed path", "file_id", u.FileID, "path", u.UploadPath)
			partial = true
			continue
		}
		if err := s.blobs.Delete(ctx, uri.Key); err != nil {
			s.log.Warn("blob delete failed", "file_id", u.FileID, "error", err)
			partial = true
			continue
		}
		filesDeleted++
	}

	s.log.Info("report deleted", "report_id", reportID, "files_deleted", filesDeleted)
	return filesDeleted, partial, nil
}

// TogglePin flips the pin flag. Works on any status.
func (s *Service) TogglePin(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	return s.reports.TogglePin(ctx, reportID)
}

// reconcile checks the artifact location for any non-success report and
// flips it to success when the artifact has appeared. Failed reports are
// checked too: a trigger timeout fails the report while the analysis job
// may still be running, and its artifact showing up later means it
// finished after all. The check is advisory: lookup or write failures
// leave the row as-is. Successful reports are untouched, so repeated
// reads cause at most one status write.
func (s *Service) reconcile(ctx context.Context, report *models.Report) {
	if report.Status == models.ReportStatusSuccess || report.ReportPath == "" {
		return
	}

	uri, err := blob.ParseURI(report.ReportPath)
	if err != nil {
		return
	}

	exists, err := s.blobs.Exists(ctx, uri.Key)
	if err != nil {
		s.log.Warn("artifact existence check failed", "report_id", report.ReportID, "error", err)
		return
	}
	if !exists {
		return
	}

	if err := s.reports.MarkSuccess(ctx, report.ReportID); err != nil {
		s.log.Warn("reconciliation status write failed", "report_id", report.ReportID, "error", err)
		return
	}
	report.Status = models.ReportStatusSuccess
}
