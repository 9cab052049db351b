package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appanalysis "github.com/bryanwahyu/medimage-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/middleware"
)

const archiveTimeout = 15 * time.Second

// analysisResponse JSON body of POST /v1/analyses
type analysisResponse struct {
	Analysis *analysis.AnalysisState  `json:"analysis"`
	Progress []analysis.ProgressEvent `json:"progress"`
	ReportID string                   `json:"report_id,omitempty"`
}

// readUpload parses multipart fields "image" (or "file") and "image_type".
func (r *Router) readUpload(w http.ResponseWriter, req *http.Request) (appanalysis.Request, error) {
	// multipart overhead on top of the image
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+1<<20)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		return appanalysis.Request{}, badRequest("invalid multipart form: %v", err)
	}

	it, err := middleware.ValidateImageType(req.FormValue("image_type"))
	if err != nil {
		return appanalysis.Request{}, err
	}

	file, header, err := req.FormFile("image")
	if err != nil {
		file, header, err = req.FormFile("file")
	}
	if err != nil {
		return appanalysis.Request{}, badRequest("image file is required")
	}
	defer file.Close()

	if err := middleware.ValidateUpload(header.Filename, header.Size, r.maxUpload); err != nil {
		return appanalysis.Request{}, err
	}
	data, err := io.ReadAll(io.LimitReader(file, r.maxUpload+1))
	if err != nil {
		return appanalysis.Request{}, fmt.Errorf("read upload: %w", err)
	}
	return appanalysis.Request{Image: data, ImageType: it}, nil
}

// POST /v1/analyses
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	in, err := r.readUpload(w, req)
	if err != nil {
		return err
	}

	var events []analysis.ProgressEvent
	st := r.analyzer.Run(req.Context(), in, analysis.Collect(&events))
	resp := analysisResponse{Analysis: st, Progress: events, ReportID: r.archiveQuietly(req.Context(), st)}

	status := http.StatusOK
	if st.Err != nil {
		status = statusFor(st.Err)
	}
	return writeJSON(w, status, resp)
}

// POST /v1/analyses/stream → text/event-stream
//
//	event: progress  data: {"index":1,"label":"Preprocess"}
//	event: result    data: {AnalysisState}
func (r *Router) handleStream(w http.ResponseWriter, req *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}
	in, err := r.readUpload(w, req)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			r.log.Error("encode sse event", "event", event, "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	st := r.analyzer.Run(req.Context(), in, func(e analysis.ProgressEvent) {
		send("progress", e)
	})
	if id := r.archiveQuietly(req.Context(), st); id != "" {
		send("archived", map[string]string{"report_id": id})
	}
	send("result", st)
	return nil
}

// POST /v1/analyses/export → text/plain attachment of the final report
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	in, err := r.readUpload(w, req)
	if err != nil {
		return err
	}
	st := r.analyzer.Run(req.Context(), in, nil)
	if st.Err != nil {
		return st.Err
	}
	r.archiveQuietly(req.Context(), st)
	return writeAttachment(w, ReportFilename(st.Timestamp), []byte(st.FinalReport))
}

// archiveQuietly stores a completed report when the archive is configured.
// Failures are logged only. Returns the report id or "".
func (r *Router) archiveQuietly(ctx context.Context, st *analysis.AnalysisState) string {
	if r.archive == nil || st.Status != analysis.StatusCompleted {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	rep, err := r.archive.Archive(ctx, st)
	if err != nil {
		r.log.Warn("report archive failed", "analysis_id", st.ID, "error", err)
		return ""
	}
	return rep.ID
}
