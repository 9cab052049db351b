package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/medimage-analyzer/internal/application"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// ErrNotArchivable only completed runs with a report are archived
var ErrNotArchivable = errors.New("analysis has no completed report")

const contentType = "text/plain; charset=utf-8"

// Service archives exported report text and serves it back.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo  domain.Repository
	Store domain.ObjectStore
	Clock application.Clock
}

// ObjectKey → reports/YYYY/MM/DD/<id>.txt
func ObjectKey(st *analysis.AnalysisState) string {
	return fmt.Sprintf("reports/%s/%s.txt", st.Timestamp.UTC().Format("2006/01/02"), st.ID)
}

// Archive upload report text ke object store lalu simpan index row
func (s *Service) Archive(ctx context.Context, st *analysis.AnalysisState) (*domain.Report, error) {
	if st.Status != analysis.StatusCompleted || st.FinalReport == "" {
		return nil, ErrNotArchivable
	}
	key := ObjectKey(st)
	body := []byte(st.FinalReport)
	if err := s.Store.Put(ctx, key, body, contentType); err != nil {
		metrics.RecordArchiveWrite("store_error")
		return nil, fmt.Errorf("upload report: %w", err)
	}

	degraded := make([]string, len(st.Degraded))
	for i, l := range st.Degraded {
		degraded[i] = string(l)
	}
	r := &domain.Report{
		ID:               st.ID,
		ImageType:        string(st.ImageType),
		Status:           string(st.Status),
		PrimaryDiagnosis: st.PrimaryDiagnosis(),
		DiseaseCount:     len(st.Diseases),
		MedicationCount:  len(st.Medications),
		Degraded:         strings.Join(degraded, ","),
		ObjectKey:        key,
		SizeBytes:        int64(len(body)),
		AnalyzedAt:       st.Timestamp,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		metrics.RecordArchiveWrite("db_error")
		return nil, fmt.Errorf("save report: %w", err)
	}
	metrics.RecordArchiveWrite("ok")
	return r, nil
}

// List returns a page of archived reports, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	data, total, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	if data == nil {
		data = []*domain.Report{}
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return domain.PaginatedResult{Data: data, Page: page, PageSize: pageSize, Total: total, TotalPages: pages}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.Repo.Get(ctx, id)
}

// Download returns the index row and the archived text.
func (s *Service) Download(ctx context.Context, id string) (*domain.Report, []byte, error) {
	r, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.Store.Get(ctx, r.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch report %s: %w", id, err)
	}
	return r, body, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}
