package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
)

var columns = []string{"id", "image_type", "status", "primary_diagnosis", "disease_count", "medication_count",
	"degraded", "object_key", "size_bytes", "analyzed_at", "created_at"}

func newMock(t *testing.T) (*ReportRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReportRepository(db), mock
}

func TestSave(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	rep := &domain.Report{
		ID: "r1", ImageType: "x-ray", Status: "completed", PrimaryDiagnosis: "Pneumonia",
		DiseaseCount: 2, MedicationCount: 3, ObjectKey: "reports/2025/06/01/r1.txt", SizeBytes: 42,
		AnalyzedAt: at, CreatedAt: at,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO medical_reports")).
		WithArgs("r1", "x-ray", "completed", "Pneumonia", 2, 3, "", "reports/2025/06/01/r1.txt", int64(42), at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), rep))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM medical_reports WHERE id=?")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r1", "mri", "completed", "Glioma", 1, 0, "CARE PLAN", "k", 10, at, at))

	rep, err := repo.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Glioma", rep.PrimaryDiagnosis)
	assert.Equal(t, "CARE PLAN", rep.Degraded)
	assert.Equal(t, at, rep.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM medical_reports WHERE id=?")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM medical_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r3", "ecg", "completed", "", 0, 0, "", "k3", 1, at, at))

	out, total, err := repo.Paginate(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, out, 1)
	assert.Equal(t, "r3", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
