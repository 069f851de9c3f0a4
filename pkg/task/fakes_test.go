package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
)

// In-memory store fakes shared by the worker and reaper tests.

type fakeReportStore struct {
	mu           sync.Mutex
	reports      map[uuid.UUID]*models.Report
	statusWrites int
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[uuid.UUID]*models.Report{}}
}

func (s *fakeReportStore) Create(ctx context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ReportID] = r
	return nil
}

func (s *fakeReportStore) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDelete {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *fakeReportStore) List(ctx context.Context, f store.ReportFilter, skip, limit int) ([]*models.Report, int, error) {
	return nil, 0, nil
}

func (s *fakeReportStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil
	}
	if r.Status != models.ReportStatusPending {
		return nil
	}
	r.Status = status
	s.statusWrites++
	return nil
}

func (s *fakeReportStore) MarkSuccess(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.Status == models.ReportStatusSuccess {
		return nil
	}
	r.Status = models.ReportStatusSuccess
	s.statusWrites++
	return nil
}

func (s *fakeReportStore) TogglePin(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return nil, store.ErrNotFound
}

func (s *fakeReportStore) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return nil, store.ErrNotFound
}

func (s *fakeReportStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	return store.ErrNotFound
}

func (s *fakeReportStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Report
	for _, r := range s.reports {
		if r.Status == models.ReportStatusPending && !r.IsDelete && r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReportStore) status(id uuid.UUID) models.ReportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[id].Status
}

type fakeUploadStore struct {
	mu      sync.Mutex
	uploads []*models.Upload
}

func (s *fakeUploadStore) Create(ctx context.Context, u *models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, u)
	return nil
}

func (s *fakeUploadStore) Get(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.FileID == id && !u.IsDelete {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUploadStore) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Upload
	for _, u := range s.uploads {
		if u.ReportID == reportID && !u.IsDelete {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUploadStore) CountByReport(ctx context.Context, reportID uuid.UUID) (int, error) {
	rows, _ := s.ListByReport(ctx, reportID)
	return len(rows), nil
}

func (s *fakeUploadStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.uploads {
		if u.FileID == id {
			s.uploads = append(s.uploads[:i], s.uploads[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[uuid.UUID]*models.Task{}}
}

func (s *fakeTaskStore) CreateWithReport(ctx context.Context, r *models.Report, t *models.Task, files []*models.TaskFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Files = files
	s.tasks[t.TaskID] = t
	return nil
}

func (s *fakeTaskStore) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (s *fakeTaskStore) Claim(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.State != models.TaskStateQueued {
		return nil, store.ErrTaskClaimed
	}
	t.State = models.TaskStateRunning
	now := time.Now()
	t.StartedAt = &now
	return t, nil
}

func (s *fakeTaskStore) Finish(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[id]
	t.State = models.TaskStateSucceeded
	t.Files = nil
	return nil
}

func (s *fakeTaskStore) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.State = models.TaskStateFailed
	t.Error = reason
	return nil
}

func (s *fakeTaskStore) ListQueuedIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id, t := range s.tasks {
		if t.State == models.TaskStateQueued {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) ListRunningBefore(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Task
	for _, t := range s.tasks {
		if t.State == models.TaskStateRunning && t.StartedAt != nil && t.StartedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) state(id uuid.UUID) models.TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id].State
}

// failingBlobStore fails Put for one key and defers to the wrapped store
// otherwise.
type failingBlobStore struct {
	blob.Store
	failKey string
}

func (s *failingBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == s.failKey {
		return "", context.DeadlineExceeded
	}
	return s.Store.Put(ctx, key, data, contentType)
}
