package postgres

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

func TestReportRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReportRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS medical_reports")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(ctx))

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs("r1", "ct-scan", "completed", "", 0, 0, "DISEASES", "k", int64(5), at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(ctx, &domain.Report{
		ID: "r1", ImageType: "ct-scan", Status: "completed", Degraded: "DISEASES",
		ObjectKey: "k", SizeBytes: 5, AnalyzedAt: at, CreatedAt: at,
	}))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id=$1")).
		WithArgs("r2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(ctx, "r2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	out, total, err := repo.Paginate(ctx, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, out)

	assert.NoError(t, mock.ExpectationsWereMet())
}
