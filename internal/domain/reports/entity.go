package reports

import (
	"errors"
	"time"
)

// ErrNotFound report tidak ada di arsip
var ErrNotFound = errors.New("report not found")

// Report is the archive index row for one exported report. The report text
// lives in the object store under ObjectKey; images are never archived.
type Report struct {
	ID               string    `json:"id"`
	ImageType        string    `json:"image_type"`
	Status           string    `json:"status"`
	PrimaryDiagnosis string    `json:"primary_diagnosis"`
	DiseaseCount     int       `json:"disease_count"`
	MedicationCount  int       `json:"medication_count"`
	Degraded         string    `json:"degraded,omitempty"`
	ObjectKey        string    `json:"object_key"`
	SizeBytes        int64     `json:"size_bytes"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Report `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
