package reports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Report
	err  error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]*domain.Report{}} }

func (m *memRepo) EnsureSchema(context.Context) error { return nil }
func (m *memRepo) Ping(context.Context) error         { return nil }

func (m *memRepo) Save(_ context.Context, r *domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) Paginate(_ context.Context, page, pageSize int) ([]*domain.Report, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Report
	for _, r := range m.rows {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, int64(len(all)), nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], int64(len(all)), nil
}

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) Put(_ context.Context, key string, data []byte, ct string) error {
	if m.err != nil {
		return m.err
	}
	m.objects[key] = data
	m.types[key] = ct
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func completed(id string, at time.Time) *analysis.AnalysisState {
	return &analysis.AnalysisState{
		ID:          id,
		ImageType:   analysis.ImageMRI,
		Timestamp:   at,
		Status:      analysis.StatusCompleted,
		Diseases:    []findings.Disease{{Name: "Glioma", Confidence: findings.Score(0.7)}},
		Medications: []findings.Medication{{Name: "Dexamethasone"}},
		Degraded:    []findings.Label{findings.LabelCarePlan},
		FinalReport: "MEDICAL IMAGE ANALYSIS REPORT\n",
	}
}

func TestArchiveAndDownload(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	repo, store := newMemRepo(), newMemStore()
	svc := &Service{Repo: repo, Store: store, Clock: fixedClock{at.Add(time.Second)}}

	r, err := svc.Archive(context.Background(), completed("abc", at))
	require.NoError(t, err)
	assert.Equal(t, "reports/2025/01/02/abc.txt", r.ObjectKey)
	assert.Equal(t, "Glioma", r.PrimaryDiagnosis)
	assert.Equal(t, 1, r.DiseaseCount)
	assert.Equal(t, 1, r.MedicationCount)
	assert.Equal(t, "CARE PLAN", r.Degraded)
	assert.Equal(t, at.Add(time.Second), r.CreatedAt)
	assert.Equal(t, "text/plain; charset=utf-8", store.types[r.ObjectKey])

	got, body, err := svc.Download(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, r.ObjectKey, got.ObjectKey)
	assert.Equal(t, "MEDICAL IMAGE ANALYSIS REPORT\n", string(body))

	_, _, err = svc.Download(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArchive_RejectsFailedRuns(t *testing.T) {
	svc := &Service{Repo: newMemRepo(), Store: newMemStore()}
	st := completed("x", time.Now())
	st.Status = analysis.StatusFailed
	_, err := svc.Archive(context.Background(), st)
	assert.ErrorIs(t, err, ErrNotArchivable)
}

func TestArchive_StoreErrorSkipsIndex(t *testing.T) {
	repo, store := newMemRepo(), newMemStore()
	store.err = errors.New("bucket gone")
	svc := &Service{Repo: repo, Store: store}

	_, err := svc.Archive(context.Background(), completed("x", time.Now()))
	require.Error(t, err)
	assert.Empty(t, repo.rows)
}

func TestList(t *testing.T) {
	repo, store := newMemRepo(), newMemStore()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		svc := &Service{Repo: repo, Store: store, Clock: fixedClock{base.Add(time.Duration(i) * time.Minute)}}
		_, err := svc.Archive(context.Background(), completed(id, base))
		require.NoError(t, err)
	}
	svc := &Service{Repo: repo, Store: store}

	res, err := svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "c", res.Data[0].ID)

	res, err = svc.List(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, res.PageSize)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}
