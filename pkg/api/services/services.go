package services

import (
	"github.com/pitchlense/pitchlense/pkg/api/services/reports"
	"github.com/pitchlense/pitchlense/pkg/api/services/uploads"
	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/config"
	"github.com/pitchlense/pitchlense/pkg/store"
	"github.com/pitchlense/pitchlense/pkg/task"
)

type Services struct {
	Reports *reports.Service
	Uploads *uploads.Service
}

func NewServices(cfg *config.Config, stores *store.Stores, blobs blob.Store, queue task.Queue, log *applog.Logger) *Services {
	reportSvc := reports.NewService(stores, blobs, queue, log, reports.Options{
		MaxFileSize:         cfg.MaxFileSize,
		AllowedContentTypes: cfg.AllowedContentTypes,
		AllowedCategories:   cfg.AllowedCategories,
		ArtifactRoot:        cfg.ArtifactRoot,
	})
	uploadSvc := uploads.NewService(stores, blobs, log)

	return &Services{
		Reports: reportSvc,
		Uploads: uploadSvc,
	}
}

func EmptyServices() *Services {
	return &Services{}
}
