package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medimage-analyzer/internal/application"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// Service runs the seven-step analysis pipeline. It holds no per-run state,
// so one Service can serve concurrent Run calls.
type Service struct {
	Client     ai.Client
	Normalizer domain.Normalizer
	Clock      application.Clock
	Logger     *slog.Logger
}

// Request input satu kali analisa
type Request struct {
	Image     []byte
	ImageType domain.ImageType
}

// run state for one pipeline execution
type run struct {
	ctx   context.Context
	svc   *Service
	req   Request
	st    *domain.AnalysisState
	image domain.NormalizedImage
	log   *slog.Logger
}

// Run executes every step in order and always returns a finished state:
// Completed, or Failed with Err set. observer may be nil. Cancelling ctx
// stops the run before the next step; a model call already in flight is
// bounded by the client's own timeout.
func (s *Service) Run(ctx context.Context, req Request, observer domain.ProgressFunc) *domain.AnalysisState {
	if observer == nil {
		observer = func(domain.ProgressEvent) {}
	}
	clock := s.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := &domain.AnalysisState{
		ID:        uuid.New().String(),
		ImageType: req.ImageType,
		Timestamp: clock.Now(),
		Status:    domain.StatusRunning,
	}
	r := &run{ctx: ctx, svc: s, req: req, st: st, log: logger.With("analysis_id", st.ID)}
	r.log.Info("analysis started", "image_type", req.ImageType, "bytes", len(req.Image))

	for _, step := range domain.Steps {
		if err := ctx.Err(); err != nil {
			st.Err = err
			break
		}
		st.Step = step
		observer(domain.ProgressEvent{Index: int(step), Label: step.String()})

		start := time.Now()
		err := r.exec(step)
		metrics.RecordStep(step.String(), time.Since(start))
		r.log.Debug("step finished", "step", step.String(), "duration", time.Since(start), "error", err)
		if err != nil {
			st.Err = fmt.Errorf("%s: %w", step, err)
			break
		}
	}

	terminal := domain.ProgressEvent{Index: int(st.Step) + 1}
	if st.Err != nil {
		st.Status = domain.StatusFailed
		terminal.Label = domain.LabelFailed + ": " + st.Err.Error()
		r.log.Warn("analysis failed", "step", st.Step.String(), "kind", domain.KindOf(st.Err), "error", st.Err)
	} else {
		st.Status = domain.StatusCompleted
		terminal.Label = domain.LabelCompleted
		r.log.Info("analysis completed",
			"diseases", len(st.Diseases),
			"medications", len(st.Medications),
			"degraded", st.Degraded,
		)
	}
	metrics.RecordAnalysisRun(string(st.Status), string(domain.KindOf(st.Err)))
	observer(terminal)
	return st
}

func (r *run) exec(step domain.Step) error {
	switch step {
	case domain.StepPreprocess:
		return r.preprocess()
	case domain.StepVisionAnalyze:
		return r.visionAnalyze()
	case domain.StepExtractDiseases:
		r.st.Diseases = findings.ExtractDiseases(r.st.RawVisionResponse)
		r.degradedIf(len(r.st.Diseases) == 0, findings.LabelDiseases)
	case domain.StepExtractRootCauses:
		r.st.RootCauses = findings.ExtractRootCauses(r.st.RawVisionResponse)
		r.degradedIf(len(r.st.RootCauses) == 0, findings.LabelRootCauses)
	case domain.StepGenerateTreatment:
		return r.generateTreatment()
	case domain.StepExtractTreatment:
		raw := r.st.RawTextResponse
		r.st.Medications = findings.ExtractMedications(raw)
		r.degradedIf(len(r.st.Medications) == 0, findings.LabelMedications)
		r.st.CarePlan = findings.ExtractCarePlan(raw)
		r.degradedIf(r.st.CarePlan == nil, findings.LabelCarePlan)
		r.st.DoctorSummary = findings.ExtractDoctorSummary(raw)
		r.degradedIf(r.st.DoctorSummary == "", findings.LabelDoctorSummary)
	case domain.StepCompileReport:
		r.st.FinalReport = CompileReport(r.st)
	default:
		return fmt.Errorf("unknown step %d", step)
	}
	return nil
}

func (r *run) preprocess() error {
	img, err := r.svc.Normalizer.Normalize(r.req.Image, r.req.ImageType)
	if err != nil {
		return err
	}
	r.image = img
	r.st.Image = img
	return nil
}

func (r *run) visionAnalyze() error {
	payload, err := r.image.Payload()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	out, err := r.svc.Client.GenerateFromImage(context.WithoutCancel(r.ctx), payload, prompt.Vision(r.st.ImageType))
	if err != nil {
		return err
	}
	r.st.RawVisionResponse = out
	return nil
}

func (r *run) generateTreatment() error {
	p := prompt.Treatment(r.st.ImageType, r.st.Diseases, r.st.RootCauses)
	out, err := r.svc.Client.GenerateFromText(context.WithoutCancel(r.ctx), p)
	if err != nil {
		return err
	}
	r.st.RawTextResponse = out
	return nil
}

// degradedIf tandai section kosong, run tetap lanjut
func (r *run) degradedIf(empty bool, l findings.Label) {
	if !empty {
		return
	}
	r.st.Degraded = append(r.st.Degraded, l)
	metrics.RecordDegraded(string(l))
	r.log.Warn("section missing or unparseable", "section", string(l))
}
