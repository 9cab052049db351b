package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/medimage-analyzer/internal/application/analysis"
	domai "github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
	"github.com/bryanwahyu/medimage-analyzer/internal/middleware"
)

// Analyzer runs one pipeline
type Analyzer interface {
	Run(ctx context.Context, req appanalysis.Request, observer analysis.ProgressFunc) *analysis.AnalysisState
}

// Archive optional report archive
type Archive interface {
	Archive(ctx context.Context, st *analysis.AnalysisState) (*reports.Report, error)
	List(ctx context.Context, page, pageSize int) (reports.PaginatedResult, error)
	Get(ctx context.Context, id string) (*reports.Report, error)
	Download(ctx context.Context, id string) (*reports.Report, []byte, error)
}

// Options wiring options for NewRouter
type Options struct {
	Logger         *slog.Logger
	APIKeys        map[string]string
	RateLimiter    *middleware.RateLimiter
	CORSOrigins    []string
	MaxUploadBytes int64
	Health         http.Handler
	// DownloadKey signs report text rendered on the result page. A random
	// key is generated when empty, so signatures do not survive a restart.
	DownloadKey []byte
}

type Router struct {
	analyzer  Analyzer
	archive   Archive
	log       *slog.Logger
	maxUpload int64
	pages     *pages
	signer    *signer
}

// NewRouter builds the web UI, the /v1 API, /health and /metrics.
// archive may be nil, then the /v1/reports routes are not mounted.
func NewRouter(analyzer Analyzer, archive Archive, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	r := &Router{
		analyzer:  analyzer,
		archive:   archive,
		log:       logger,
		maxUpload: maxUpload,
		pages:     mustParsePages(),
		signer:    newSigner(opts.DownloadKey),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoggingMiddleware(logger))

	health := opts.Health
	if health == nil {
		health = http.HandlerFunc(middleware.LivenessHandler)
	}
	mux.Method(http.MethodGet, "/health", health)
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", metrics.Handler())

	// web UI
	mux.Group(func(ui chi.Router) {
		ui.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
		ui.Get("/", r.handleIndex)
		ui.Post("/analyze", r.handleAnalyzeForm)
		ui.Post("/download", r.handleDownloadForm)
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
			MaxAge:         300,
		}))
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		rt.Use(middleware.RateLimitMiddleware(opts.RateLimiter))

		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Post("/analyses/stream", r.wrap(r.handleStream))
		rt.Post("/analyses/export", r.wrap(r.handleExport))

		if archive != nil {
			rt.Get("/reports", r.wrap(r.handleListReports))
			rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
			rt.Get("/reports/{id}/download", r.wrap(r.handleDownloadReport))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError is a client mistake reported as 400
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var re *requestError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, reports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrInvalidFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domai.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				r.log.Error("request failed", "path", req.URL.Path, "error", err)
			}
			kind := analysis.KindOf(err)
			if status < http.StatusInternalServerError && kind == analysis.KindInternal {
				kind = analysis.KindNone
			}
			writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
		}
	}
}

type errorBody struct {
	Error string        `json:"error"`
	Kind  analysis.Kind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// ReportFilename → medical_report_YYYYMMDD_HHMMSS.txt
func ReportFilename(t time.Time) string {
	return "medical_report_" + t.Format("20060102_150405") + ".txt"
}

func writeAttachment(w http.ResponseWriter, filename string, body []byte) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}
