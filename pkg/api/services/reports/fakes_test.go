package reports

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchlense/pitchlense/pkg/blob"
	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/pitchlense/pitchlense/pkg/store"
)

type fakeReportStore struct {
	mu           sync.Mutex
	reports      map[uuid.UUID]*models.Report
	statusWrites int
	lastFilter   store.ReportFilter
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
	clone := *r
	return &clone, nil
}

func (s *fakeReportStore) List(ctx context.Context, f store.ReportFilter, skip, limit int) ([]*models.Report, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f

	var out []*models.Report
	for _, r := range s.reports {
		if r.IsDelete && !f.IncludeDeleted {
			continue
		}
		if f.PinnedOnly && !r.IsPinned {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	total := len(out)
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
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
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDelete {
		return nil, store.ErrNotFound
	}
	r.IsPinned = !r.IsPinned
	clone := *r
	return &clone, nil
}

func (s *fakeReportStore) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDelete {
		return nil, store.ErrNotFound
	}
	r.IsDelete = true
	clone := *r
	return &clone, nil
}

func (s *fakeReportStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *fakeReportStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Report, error) {
	return nil, nil
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
	mu      sync.Mutex
	created int
	reports *fakeReportStore
	tasks   map[uuid.UUID]*models.Task
}

func newFakeTaskStore(reports *fakeReportStore) *fakeTaskStore {
	return &fakeTaskStore{reports: reports, tasks: map[uuid.UUID]*models.Task{}}
}

func (s *fakeTaskStore) CreateWithReport(ctx context.Context, r *models.Report, t *models.Task, files []*models.TaskFile) error {
	s.mu.Lock()
	s.created++
	t.Files = files
	s.tasks[t.TaskID] = t
	s.mu.Unlock()
	return s.reports.Create(ctx, r)
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
	return nil, store.ErrTaskClaimed
}

func (s *fakeTaskStore) Finish(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeTaskStore) Fail(ctx context.Context, id uuid.UUID, reason string) error { return nil }

func (s *fakeTaskStore) ListQueuedIDs(ctx context.Context) ([]uuid.UUID, error) { return nil, nil }

func (s *fakeTaskStore) ListRunningBefore(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	return nil, nil
}

// recordingQueue captures enqueued IDs; fail makes Enqueue error to test
// that submissions survive a lost nudge.
type recordingQueue struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	fail bool
}

func (q *recordingQueue) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("redis down")
	}
	q.ids = append(q.ids, taskID)
	return nil
}

func (q *recordingQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

func (q *recordingQueue) Close() error { return nil }

// flakyBlobStore fails Delete for one key.
type flakyBlobStore struct {
	blob.Store
	failDeleteKey string
}

func (s *flakyBlobStore) Delete(ctx context.Context, key string) error {
	if key == s.failDeleteKey {
		return errors.New("storage unavailable")
	}
	return s.Store.Delete(ctx, key)
}
