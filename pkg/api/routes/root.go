package routes

import (
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/pitchlense/pitchlense/pkg/api/services"
	"github.com/pitchlense/pitchlense/pkg/api/services/reports"
	"github.com/pitchlense/pitchlense/pkg/api/services/uploads"
	"github.com/pitchlense/pitchlense/pkg/store"
)

func RegisterAPI(api huma.API, svcs *services.Services) {
	RegisterHealth(api)
	if svcs == nil {
		RegisterReports(api, nil)
		RegisterUploads(api, nil)
	} else {
		RegisterReports(api, svcs.Reports)
		RegisterUploads(api, svcs.Uploads)
	}
}

// mapError translates service errors into HTTP status errors.
func mapError(err error, notFoundMsg string) error {
	var verr *reports.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Message)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, uploads.ErrBlobMissing):
		return huma.Error404NotFound(notFoundMsg)
	default:
		return huma.Error500InternalServerError(fmt.Sprintf("internal error: %v", err))
	}
}
