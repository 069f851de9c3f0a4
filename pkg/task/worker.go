package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
	"github.com/pitchlense/pitchlense/pkg/trigger"
)

// WorkerConfig tunes the worker pool.
type WorkerConfig struct {
	Workers      int           // concurrent task processors
	PollInterval time.Duration // database poll fallback period
	StaleAfter   time.Duration // running tasks older than this fail closed
}

func (c *WorkerConfig) defaults() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 15 * time.Minute
	}
}

// Worker consumes queued tasks: uploads staged files in input order, records
// upload rows, and invokes the analysis trigger. Any failure marks the
// report failed; the caller of the original submission is never told
// directly.
type Worker struct {
	reports store.ReportStore
	uploads store.UploadStore
	tasks   store.TaskStore
	blobs   blob.Store
	queue   Queue
	trig    *trigger.Client
	log     *applog.Logger
	cfg     WorkerConfig
}

// NewWorker wires a worker pool. trig may be nil/disabled; the trigger step
// is then skipped with a warning, matching the source deployment.
func NewWorker(
	stores *store.Stores,
	blobs blob.Store,
	queue Queue,
	trig *trigger.Client,
	log *applog.Logger,
	cfg WorkerConfig,
) *Worker {
	cfg.defaults()
	return &Worker{
		reports: stores.Reports,
		uploads: stores.Uploads,
		tasks:   stores.Tasks,
		blobs:   blobs,
		queue:   queue,
		trig:    trig,
		log:     log.Component("worker"),
		cfg:     cfg,
	}
}

// Start runs the pool until ctx is cancelled. Workers serve the queue and
// fall back to a periodic database poll, which also sweeps tasks left
// running by a dead process, so recovery keeps working when another
// instance dies mid-flight.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		id, ok, err := w.queue.Dequeue(ctx, w.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("queue dequeue failed", "error", err)
			time.Sleep(time.Second)
		}

		if ok {
			w.Process(ctx, id)
			continue
		}

		// Timeout: fall back to the database for tasks whose nudge was lost
		w.poll(ctx)
	}
}

// poll is the database fallback pass: it fails closed stale running tasks
// and processes any queued tasks whose queue nudge never arrived.
func (w *Worker) poll(ctx context.Context) {
	w.recoverStale(ctx)

	ids, err := w.tasks.ListQueuedIDs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("queued task poll failed", "error", err)
		}
		return
	}
	for _, id := range ids {
		w.Process(ctx, id)
	}
}

// recoverStale fails closed tasks stuck in running state. Re-running them
// could double-trigger the analysis job, so their reports are failed
// instead.
func (w *Worker) recoverStale(ctx context.Context) {
	cutoff := time.Now().Add(-w.cfg.StaleAfter)
	stale, err := w.tasks.ListRunningBefore(ctx, cutoff)
	if err != nil {
		w.log.Warn("stale task scan failed", "error", err)
		return
	}

	for _, t := range stale {
		w.log.Warn("failing stale task", "task_id", t.TaskID, "report_id", t.ReportID)
		w.fail(ctx, t.TaskID, t.ReportID, "interrupted by process restart")
	}
}

// Process runs one task to completion. Safe to call with an ID another
// worker already claimed.
func (w *Worker) Process(ctx context.Context, taskID uuid.UUID) {
	t, err := w.tasks.Claim(ctx, taskID)
	if errors.Is(err, store.ErrTaskClaimed) {
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		w.log.Warn("task vanished before claim", "task_id", taskID)
		return
	}
	if err != nil {
		w.log.Error("task claim failed", "task_id", taskID, "error", err)
		return
	}

	report, err := w.reports.Get(ctx, t.ReportID)
	if err != nil {
		w.fail(ctx, t.TaskID, t.ReportID, fmt.Sprintf("load report: %v", err))
		return
	}

	w.log.Info("background task started", "report_id", report.ReportID, "files", len(t.Files))

	refs := make([]trigger.UploadRef, 0, len(t.Files))
	for i, f := range t.Files {
		key := blob.UploadKey(report.ReportID.String(), f.Filename)
		uri, err := w.blobs.Put(ctx, key, f.Data, f.ContentType)
		if err != nil {
			w.fail(ctx, t.TaskID, t.ReportID, fmt.Sprintf("upload %s: %v", f.Filename, err))
			return
		}
		w.log.Info("file uploaded", "report_id", report.ReportID,
			"file", fmt.Sprintf("%d/%d", i+1, len(t.Files)), "path", uri)

		upload := &models.Upload{
			FileID:     uuid.New(),
			ReportID:   report.ReportID,
			Filename:   f.Filename,
			FileFormat: f.Category,
			UploadPath: uri,
		}
		if err := w.uploads.Create(ctx, upload); err != nil {
			w.fail(ctx, t.TaskID, t.ReportID, fmt.Sprintf("record upload %s: %v", f.Filename, err))
			return
		}

		refs = append(refs, trigger.UploadRef{
			Category:  f.Category,
			Filename:  f.Filename,
			Extension: upload.Extension(),
			Path:      uri,
		})
	}

	if w.trig.Enabled() {
		payload := trigger.Payload{
			Uploads:     refs,
			StartupText: startupText(report),
			Destination: report.ReportPath,
		}
		w.log.Info("triggering analysis", "report_id", report.ReportID,
			"uploads", len(refs), "destination", report.ReportPath)
		if err := w.trig.Invoke(ctx, payload); err != nil {
			w.fail(ctx, t.TaskID, t.ReportID, fmt.Sprintf("trigger: %v", err))
			return
		}
	} else {
		w.log.Warn("trigger endpoint not configured; skipping", "report_id", report.ReportID)
	}

	if err := w.tasks.Finish(ctx, t.TaskID); err != nil {
		w.log.Error("task finish write failed", "task_id", t.TaskID, "error", err)
		return
	}
	w.log.Info("background task finished", "report_id", report.ReportID)
}

// fail marks the task and its report failed. Both writes are best-effort:
// if they fail too, the problem is observable only in logs.
func (w *Worker) fail(ctx context.Context, taskID, reportID uuid.UUID, reason string) {
	w.log.Error("background task failed", "task_id", taskID, "report_id", reportID, "reason", reason)

	if err := w.tasks.Fail(ctx, taskID, reason); err != nil {
		w.log.Error("task failure write failed", "task_id", taskID, "error", err)
	}
	if err := w.reports.UpdateStatus(ctx, reportID, models.ReportStatusFailed); err != nil {
		w.log.Error("report failure write failed", "report_id", reportID, "error", err)
	}
}

func startupText(r *models.Report) string {
	return fmt.Sprintf("Startup Name: %s\nFounder: %s\nLaunch Date: %s\nReport ID: %s\n",
		r.StartupName, r.FounderName, r.LaunchDate, r.ReportID)
}
