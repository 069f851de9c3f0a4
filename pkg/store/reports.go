package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/uptrace/bun"
)

type reportStore struct {
	db *bun.DB
}

func (s *reportStore) Create(ctx context.Context, report *models.Report) error {
	_, err := s.db.NewInsert().Model(report).Exec(ctx)
	return err
}

func (s *reportStore) Get(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report := new(models.Report)
	err := s.db.NewSelect().
		Model(report).
		Where("r.report_id = ?", reportID).
		Where("r.is_delete = FALSE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func applyFilter(q *bun.SelectQuery, filter ReportFilter) *bun.SelectQuery {
	if !filter.IncludeDeleted {
		q = q.Where("r.is_delete = FALSE")
	}
	if filter.PinnedOnly {
		q = q.Where("r.is_pinned = TRUE")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(r.report_name ILIKE ? OR r.startup_name ILIKE ? OR r.founder_name ILIKE ?)",
			like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("r.status = ?", filter.Status)
	}
	return q
}

func (s *reportStore) List(ctx context.Context, filter ReportFilter, skip, limit int) ([]*models.Report, int, error) {
	var reports []*models.Report

	// Total count reflects the same filter as the page
	total, err := applyFilter(s.db.NewSelect().Model((*models.Report)(nil)), filter).Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	err = applyFilter(s.db.NewSelect().Model(&reports), filter).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (s *reportStore) UpdateStatus(ctx context.Context, reportID uuid.UUID, status models.ReportStatus) error {
	// The pending guard keeps failure writes monotonic: a report that
	// already resolved is not failed retroactively, and concurrent
	// writers race harmlessly.
	_, err := s.db.NewUpdate().
		Model((*models.Report)(nil)).
		Set("status = ?", status).
		Where("report_id = ?", reportID).
		Where("status = ?", models.ReportStatusPending).
		Exec(ctx)
	return err
}

func (s *reportStore) MarkSuccess(ctx context.Context, reportID uuid.UUID) error {
	// Success wins over failed: the artifact existing is the ground truth
	// that the analysis completed.
	_, err := s.db.NewUpdate().
		Model((*models.Report)(nil)).
		Set("status = ?", models.ReportStatusSuccess).
		Where("report_id = ?", reportID).
		Where("status <> ?", models.ReportStatusSuccess).
		Exec(ctx)
	return err
}

func (s *reportStore) TogglePin(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	res, err := s.db.NewUpdate().
		Model((*models.Report)(nil)).
		Set("is_pinned = NOT is_pinned").
		Where("report_id = ?", reportID).
		Where("is_delete = FALSE").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, reportID)
}

func (s *reportStore) SoftDelete(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Report)(nil)).
			Set("is_delete = TRUE").
			Where("report_id = ?", reportID).
			Exec(ctx); err != nil {
			return err
		}

		// Logical delete cascades to the owned uploads
		_, err := tx.NewUpdate().
			Model((*models.Upload)(nil)).
			Set("is_delete = TRUE").
			Where("report_id = ?", reportID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	report.IsDelete = true
	return report, nil
}

func (s *reportStore) HardDelete(ctx context.Context, reportID uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*models.Report)(nil)).
		Where("report_id = ?", reportID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reportStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Report, error) {
	var reports []*models.Report
	err := s.db.NewSelect().
		Model(&reports).
		Where("r.is_delete = FALSE").
		Where("r.status = ?", models.ReportStatusPending).
		Where("r.created_at < ?", cutoff).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

var _ ReportStore = (*reportStore)(nil)
