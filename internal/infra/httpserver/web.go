package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"regexp"
	"strings"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var reportFilenameRe = regexp.MustCompile(`^medical_report_\d{8}_\d{6}\.txt$`)

// pages holds one template set per page, each parsed together with the layout
type pages struct {
	index  *template.Template
	result *template.Template
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"joinLabels": func(ls []findings.Label) string {
			out := make([]string, len(ls))
			for i, l := range ls {
				out[i] = string(l)
			}
			return strings.Join(out, ", ")
		},
		"terminal": func(e analysis.ProgressEvent) bool { return e.Terminal() },
	}
}

func parsePages(fsys fs.FS) (*pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.New("").Funcs(funcMap()).ParseFS(fsys, "templates/layout.gohtml", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		return t, nil
	}
	index, err := parse("index.gohtml")
	if err != nil {
		return nil, err
	}
	result, err := parse("result.gohtml")
	if err != nil {
		return nil, err
	}
	return &pages{index: index, result: result}, nil
}

func mustParsePages() *pages {
	p, err := parsePages(templateFS)
	if err != nil {
		panic(err)
	}
	return p
}

type modalityOption struct {
	Value analysis.ImageType
	Label string
}

type indexData struct {
	Title      string
	Modalities []modalityOption
	Selected   analysis.ImageType
	Error      string
}

type resultData struct {
	Title     string
	State     *analysis.AnalysisState
	Events    []analysis.ProgressEvent
	Filename  string
	Signature string
	ReportID  string
}

func newIndexData(selected analysis.ImageType, errMsg string) indexData {
	opts := make([]modalityOption, len(analysis.ImageTypes))
	for i, t := range analysis.ImageTypes {
		opts[i] = modalityOption{Value: t, Label: t.Label()}
	}
	if selected == "" {
		selected = analysis.ImageXRay
	}
	return indexData{Title: "MedImage Analyzer", Modalities: opts, Selected: selected, Error: errMsg}
}

// render executes into a buffer first so a template error never leaves a
// half written page behind.
func (r *Router) render(w http.ResponseWriter, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("render template", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	r.render(w, r.pages.index, http.StatusOK, newIndexData("", ""))
}

// POST /analyze (multipart form from the index page)
func (r *Router) handleAnalyzeForm(w http.ResponseWriter, req *http.Request) {
	in, err := r.readUpload(w, req)
	if err != nil {
		selected, _ := analysis.ParseImageType(req.FormValue("image_type"))
		r.render(w, r.pages.index, statusFor(err), newIndexData(selected, err.Error()))
		return
	}

	var events []analysis.ProgressEvent
	st := r.analyzer.Run(req.Context(), in, analysis.Collect(&events))
	data := resultData{
		Title:    "Analysis " + st.ID,
		State:    st,
		Events:   events,
		ReportID: r.archiveQuietly(req.Context(), st),
	}
	status := http.StatusOK
	if st.Err != nil {
		status = statusFor(st.Err)
	} else {
		data.Filename = ReportFilename(st.Timestamp)
		data.Signature = r.signer.sign(data.Filename, st.FinalReport)
	}
	r.render(w, r.pages.result, status, data)
}

// POST /download returns the report text of a result page as a file. Only
// text signed when the page was rendered is accepted.
func (r *Router) handleDownloadForm(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, 1<<20)
	if err := req.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := req.PostFormValue("filename")
	// browsers submit form line breaks as CRLF
	report := strings.ReplaceAll(req.PostFormValue("report"), "\r\n", "\n")
	if !reportFilenameRe.MatchString(name) || strings.TrimSpace(report) == "" {
		http.Error(w, "invalid download request", http.StatusBadRequest)
		return
	}
	if !r.signer.verify(name, report, req.PostFormValue("sig")) {
		http.Error(w, "report signature mismatch", http.StatusForbidden)
		return
	}
	if err := writeAttachment(w, name, []byte(report)); err != nil {
		r.log.Warn("write download", "error", err)
	}
}
