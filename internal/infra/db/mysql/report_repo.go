package mysql

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
  id                VARCHAR(36)  NOT NULL PRIMARY KEY,
  image_type        VARCHAR(32)  NOT NULL,
  status            VARCHAR(16)  NOT NULL,
  primary_diagnosis VARCHAR(255) NOT NULL DEFAULT '',
  disease_count     INT          NOT NULL DEFAULT 0,
  medication_count  INT          NOT NULL DEFAULT 0,
  degraded          VARCHAR(255) NOT NULL DEFAULT '',
  object_key        VARCHAR(512) NOT NULL,
  size_bytes        BIGINT       NOT NULL DEFAULT 0,
  analyzed_at       DATETIME(6)  NOT NULL,
  created_at        DATETIME(6)  NOT NULL,
  INDEX idx_medical_reports_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a report row, updating it when the id already exists
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO medical_reports
  (id, image_type, status, primary_diagnosis, disease_count, medication_count,
   degraded, object_key, size_bytes, analyzed_at, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), primary_diagnosis=VALUES(primary_diagnosis),
  disease_count=VALUES(disease_count), medication_count=VALUES(medication_count),
  degraded=VALUES(degraded), object_key=VALUES(object_key), size_bytes=VALUES(size_bytes);
`
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.ImageType, rep.Status, rep.PrimaryDiagnosis, rep.DiseaseCount, rep.MedicationCount,
		rep.Degraded, rep.ObjectKey, rep.SizeBytes, rep.AnalyzedAt.UTC(), createdAt.UTC(),
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM medical_reports WHERE id=? LIMIT 1;`
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

	q := `SELECT ` + reportColumns + ` FROM medical_reports ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?;`
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

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*domain.Report, error) {
	var rep domain.Report
	if err := s.Scan(
		&rep.ID, &rep.ImageType, &rep.Status, &rep.PrimaryDiagnosis, &rep.DiseaseCount, &rep.MedicationCount,
		&rep.Degraded, &rep.ObjectKey, &rep.SizeBytes, &rep.AnalyzedAt, &rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}
