package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/medimage-analyzer/internal/middleware"
)

// GET /v1/reports?page=&page_size=
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page := middleware.ValidatePage(q.Get("page"))
	size := middleware.ValidateLimit(q.Get("page_size"))

	list, err := r.archive.List(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest("%v", err)
	}
	rep, err := r.archive.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/reports/{id}/download
func (r *Router) handleDownloadReport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest("%v", err)
	}
	rep, body, err := r.archive.Download(req.Context(), id)
	if err != nil {
		return err
	}
	return writeAttachment(w, ReportFilename(rep.AnalyzedAt), body)
}
