package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
	"github.com/pitchlense/pitchlense/pkg/trigger"
)

type workerEnv struct {
	reports *fakeReportStore
	uploads *fakeUploadStore
	tasks   *fakeTaskStore
	blobs   blob.Store
	worker  *Worker
}

func newWorkerEnv(t *testing.T, blobs blob.Store, trig *trigger.Client) *workerEnv {
	t.Helper()

	env := &workerEnv{
		reports: newFakeReportStore(),
		uploads: &fakeUploadStore{},
		tasks:   newFakeTaskStore(),
		blobs:   blobs,
	}
	if env.blobs == nil {
		env.blobs = blob.NewLocalStore(t.TempDir(), "pitchlense")
		env.blobs.EnsureBucket(context.Background())
	}

	stores := &store.Stores{
		Reports: env.reports,
		Uploads: env.uploads,
		Tasks:   env.tasks,
	}
	env.worker = NewWorker(stores, env.blobs, NewMemoryQueue(4), trig,
		applog.NewDefault(), WorkerConfig{})
	return env
}

// seedTask records a pending report with a queued two-file task.
func (env *workerEnv) seedTask(t *testing.T) (*models.Report, *models.Task) {
	t.Helper()
	ctx := context.Background()

	reportID := uuid.New()
	report := &models.Report{
		ReportID:    reportID,
		ReportName:  "Acme_20250901_120000",
		StartupName: "Acme",
		FounderName: "Jordan Lee",
		LaunchDate:  "2025-06-01",
		Status:      models.ReportStatusPending,
		ReportPath:  env.blobs.URI(blob.ArtifactKey("runs", reportID.String())),
		CreatedAt:   time.Now(),
	}
	env.reports.Create(ctx, report)

	task := &models.Task{
		TaskID:    uuid.New(),
		ReportID:  reportID,
		State:     models.TaskStateQueued,
		CreatedAt: time.Now(),
	}
	files := []*models.TaskFile{
		{FileID: uuid.New(), TaskID: task.TaskID, Position: 0, Filename: "deck.pdf",
			Category: "pitch deck", ContentType: "application/pdf", Data: []byte("deck")},
		{FileID: uuid.New(), TaskID: task.TaskID, Position: 1, Filename: "notes.txt",
			Category: "founder profile", ContentType: "text/plain", Data: []byte("notes")},
	}
	env.tasks.CreateWithReport(ctx, report, task, files)
	return report, task
}

func TestWorker_ProcessSuccess(t *testing.T) {
	var payload trigger.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := newWorkerEnv(t, nil, trigger.NewClient(srv.URL, 5*time.Second))
	report, task := env.seedTask(t)
	ctx := context.Background()

	env.worker.Process(ctx, task.TaskID)

	if got := env.tasks.state(task.TaskID); got != models.TaskStateSucceeded {
		t.Errorf("Expected task succeeded, got %s", got)
	}

	rows, _ := env.uploads.ListByReport(ctx, report.ReportID)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 upload rows, got %d", len(rows))
	}
	if rows[0].Filename != "deck.pdf" || rows[1].Filename != "notes.txt" {
		t.Errorf("Upload rows out of order: %s, %s", rows[0].Filename, rows[1].Filename)
	}

	for _, row := range rows {
		uri, err := blob.ParseURI(row.UploadPath)
		if err != nil {
			t.Fatalf("Upload row has bad path %q: %v", row.UploadPath, err)
		}
		if exists, _ := env.blobs.Exists(ctx, uri.Key); !exists {
			t.Errorf("Blob missing for %s", row.Filename)
		}
	}

	if len(payload.Uploads) != 2 {
		t.Fatalf("Expected 2 upload refs in trigger payload, got %d", len(payload.Uploads))
	}
	if payload.Uploads[0].Extension != "pdf" {
		t.Errorf("Expected extension pdf, got %s", payload.Uploads[0].Extension)
	}
	if payload.Destination != report.ReportPath {
		t.Errorf("Expected destination %s, got %s", report.ReportPath, payload.Destination)
	}

	// Success is decided by artifact reconciliation, not the worker
	if got := env.reports.status(report.ReportID); got != models.ReportStatusPending {
		t.Errorf("Report should stay pending after trigger, got %s", got)
	}
}

func TestWorker_UploadFailureFailsReport(t *testing.T) {
	inner := blob.NewLocalStore(t.TempDir(), "pitchlense")
	inner.EnsureBucket(context.Background())

	env := newWorkerEnv(t, &failingBlobStore{Store: inner, failKey: ""}, nil)
	report, task := env.seedTask(t)

	// Fail the second file only
	env.blobs.(*failingBlobStore).failKey = blob.UploadKey(report.ReportID.String(), "notes.txt")

	ctx := context.Background()
	env.worker.Process(ctx, task.TaskID)

	if got := env.tasks.state(task.TaskID); got != models.TaskStateFailed {
		t.Errorf("Expected task failed, got %s", got)
	}
	if got := env.reports.status(report.ReportID); got != models.ReportStatusFailed {
		t.Errorf("Expected report failed, got %s", got)
	}

	// The first file completed before the failure and stays recorded
	rows, _ := env.uploads.ListByReport(ctx, report.ReportID)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 upload row, got %d", len(rows))
	}
	if rows[0].Filename != "deck.pdf" {
		t.Errorf("Expected deck.pdf, got %s", rows[0].Filename)
	}
}

func TestWorker_TriggerFailureFailsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "compute exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	env := newWorkerEnv(t, nil, trigger.NewClient(srv.URL, 5*time.Second))
	report, task := env.seedTask(t)

	env.worker.Process(context.Background(), task.TaskID)

	if got := env.tasks.state(task.TaskID); got != models.TaskStateFailed {
		t.Errorf("Expected task failed, got %s", got)
	}
	if got := env.reports.status(report.ReportID); got != models.ReportStatusFailed {
		t.Errorf("Expected report failed, got %s", got)
	}
}

func TestWorker_NoTriggerConfigured(t *testing.T) {
	env := newWorkerEnv(t, nil, nil)
	report, task := env.seedTask(t)
	ctx := context.Background()

	env.worker.Process(ctx, task.TaskID)

	// Uploads happen; the trigger step is skipped
	if got := env.tasks.state(task.TaskID); got != models.TaskStateSucceeded {
		t.Errorf("Expected task succeeded, got %s", got)
	}
	rows, _ := env.uploads.ListByReport(ctx, report.ReportID)
	if len(rows) != 2 {
		t.Errorf("Expected 2 upload rows, got %d", len(rows))
	}
}

func TestWorker_ClaimOnce(t *testing.T) {
	env := newWorkerEnv(t, nil, nil)
	_, task := env.seedTask(t)
	ctx := context.Background()

	env.worker.Process(ctx, task.TaskID)
	rows, _ := env.uploads.ListByReport(ctx, task.ReportID)
	first := len(rows)

	// Second delivery of the same ID is a no-op
	env.worker.Process(ctx, task.TaskID)
	rows, _ = env.uploads.ListByReport(ctx, task.ReportID)
	if len(rows) != first {
		t.Errorf("Reprocessing created %d extra upload rows", len(rows)-first)
	}
}

func TestWorker_PollSweepsPeerStaleTasks(t *testing.T) {
	env := newWorkerEnv(t, nil, nil)
	staleReport, staleTask := env.seedTask(t)
	queuedReport, queuedTask := env.seedTask(t)

	// A peer instance claimed the first task, then died mid-flight
	ctx := context.Background()
	env.tasks.Claim(ctx, staleTask.TaskID)
	started := time.Now().Add(-time.Hour)
	env.tasks.tasks[staleTask.TaskID].StartedAt = &started

	env.worker.poll(ctx)

	if got := env.tasks.state(staleTask.TaskID); got != models.TaskStateFailed {
		t.Errorf("Expected stale task failed, got %s", got)
	}
	if got := env.reports.status(staleReport.ReportID); got != models.ReportStatusFailed {
		t.Errorf("Expected stale report failed, got %s", got)
	}

	// The same pass also drains tasks whose queue nudge was lost
	if got := env.tasks.state(queuedTask.TaskID); got != models.TaskStateSucceeded {
		t.Errorf("Expected queued task succeeded, got %s", got)
	}
	if got := env.reports.status(queuedReport.ReportID); got != models.ReportStatusPending {
		t.Errorf("Expected queued report pending, got %s", got)
	}
}

func TestWorker_RecoverStaleFailsClosed(t *testing.T) {
	env := newWorkerEnv(t, nil, nil)
	report, task := env.seedTask(t)

	// Simulate a task left running by a dead process
	ctx := context.Background()
	env.tasks.Claim(ctx, task.TaskID)
	stale := time.Now().Add(-time.Hour)
	env.tasks.tasks[task.TaskID].StartedAt = &stale

	env.worker.recoverStale(ctx)

	if got := env.tasks.state(task.TaskID); got != models.TaskStateFailed {
		t.Errorf("Expected task failed, got %s", got)
	}
	if got := env.reports.status(report.ReportID); got != models.ReportStatusFailed {
		t.Errorf("Expected report failed, got %s", got)
	}
}
