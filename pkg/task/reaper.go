package task

import (
	"context"
	"time"

	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
)

// Reaper sweeps reports that stayed pending past a deadline. An analysis
// job that dies after the trigger leaves no failure marker anywhere, so
// without the sweep such reports stay pending forever. Disabled unless a
// positive timeout is configured.
type Reaper struct {
	reports  store.ReportStore
	blobs    blob.Store
	timeout  time.Duration
	interval time.Duration
	log      *applog.Logger
}

// NewReaper creates a reaper. timeout <= 0 disables it.
func NewReaper(reports store.ReportStore, blobs blob.Store, timeout time.Duration, log *applog.Logger) *Reaper {
	interval := timeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Reaper{
		reports:  reports,
		blobs:    blobs,
		timeout:  timeout,
		interval: interval,
		log:      log.Component("reaper"),
	}
}

// Run sweeps until ctx is cancelled. No-op when disabled.
func (r *Reaper) Run(ctx context.Context) {
	if r.timeout <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep fails pending reports older than the deadline whose artifact still
// does not exist. A late artifact found here flips the report to success
// instead, same as read-side reconciliation would.
func (r *Reaper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.timeout)
	overdue, err := r.reports.ListPendingBefore(ctx, cutoff)
	if err != nil {
		r.log.Warn("pending report scan failed", "error", err)
		return
	}

	for _, report := range overdue {
		status := models.ReportStatusFailed

		if report.ReportPath != "" {
			if uri, err := blob.ParseURI(report.ReportPath); err == nil {
				exists, err := r.blobs.Exists(ctx, uri.Key)
				if err != nil {
					r.log.Warn("artifact existence check failed", "report_id", report.ReportID, "error", err)
					continue
				}
				if exists {
					status = models.ReportStatusSuccess
				}
			}
		}

		if err := r.reports.UpdateStatus(ctx, report.ReportID, status); err != nil {
			r.log.Warn("overdue report update failed", "report_id", report.ReportID, "error", err)
			continue
		}
		r.log.Info("overdue pending report resolved", "report_id", report.ReportID, "status", status)
	}
}
