package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, image_type, status, primary_diagnosis, disease_count, medication_count,
       degraded, object_key, size_bytes, analyzed_at, created_at`

// EnsureSchema bikin tabel kalau belum ada
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS medical_reports (
  id                TEXT        PRIMARY KEY,
  image_type        TEXT        NOT NULL,
  status            TEXT        NOT NULL,
  primary_diagnosis TEXT        NOT NULL DEFAULT '',
  disease_count     INTEGER     NOT NULL DEFAULT 0,
  medication_count  INTEGER     NOT NULL DEFAULT 0,
  degraded          TEXT        NOT NULL DEFAULT '',
  object_key        TEXT        NOT NULL,
  size_bytes        BIGINT      NOT NULL DEFAULT 0,
  analyzed_at       TIMESTAMPTZ NOT NULL,
  created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_medical_reports_created ON medical_reports (created_at DESC);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts or updates a report row
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO medical_reports
  (id, image_type, status, primary_diagnosis, disease_count, medication_count,
   degraded, object_key, size_bytes, analyzed_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  primary_diagnosis=EXCLUDED.primary_diagnosis,
  disease_count=EXCLUDED.disease_count,
  medication_count=EXCLUDED.medication_count,
  degraded=EXCLUDED.degraded,
  object_key=EXCLUDED.object_key,
  size_bytes=EXCLUDED.size_bytes;
`
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.ImageType, rep.Status, rep.PrimaryDiagnosis, rep.DiseaseCount, rep.MedicationCount,
		rep.Degraded, rep.ObjectKey, rep.SizeBytes, rep.AnalyzedAt, createdAt,
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM medical_reports WHERE id=$1 LIMIT 1;`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rep, err
}

// Paginate returns a page of reports ordered by created_at desc plus the total count
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Report, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medical_reports;`).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + reportColumns + ` FROM medical_reports ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2;`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rep)
	}
	return out, total, rows.Err()
}

func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanReport(row interface{ Scan(...any) error }) (*domain.Report, error) {
	var rep domain.Report
	if err := row.Scan(
		&rep.ID, &rep.ImageType, &rep.Status, &rep.PrimaryDiagnosis, &rep.DiseaseCount, &rep.MedicationCount,
		&rep.Degraded, &rep.ObjectKey, &rep.SizeBytes, &rep.AnalyzedAt, &rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}
