package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/uptrace/bun"
)

type uploadStore struct {
	db *bun.DB
}

func (s *uploadStore) Create(ctx context.Context, upload *models.Upload) error {
	_, err := s.db.NewInsert().Model(upload).Exec(ctx)
	return err
}

func (s *uploadStore) Get(ctx context.Context, fileID uuid.UUID) (*models.Upload, error) {
	upload := new(models.Upload)
	err := s.db.NewSelect().
		Model(upload).
		Where("up.file_id = ?", fileID).
		Where("up.is_delete = FALSE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return upload, nil
}

func (s *uploadStore) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Upload, error) {
	var uploads []*models.Upload
	err := s.db.NewSelect().
		Model(&uploads).
		Where("up.report_id = ?", reportID).
		Where("up.is_delete = FALSE").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (s *uploadStore) CountByReport(ctx context.Context, reportID uuid.UUID) (int, error) {
	return s.db.NewSelect().
		Model((*models.Upload)(nil)).
		Where("up.report_id = ?", reportID).
		Where("up.is_delete = FALSE").
		Count(ctx)
}

func (s *uploadStore) Delete(ctx context.Context, fileID uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*models.Upload)(nil)).
		Where("file_id = ?", fileID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UploadStore = (*uploadStore)(nil)
