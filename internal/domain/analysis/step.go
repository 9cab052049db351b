package analysis

import (
	"strconv"
	"strings"
)

// Step is one state of the pipeline, in execution order starting at 1.
type Step int

const (
	StepPreprocess Step = iota + 1
	StepVisionAnalyze
	StepExtractDiseases
	StepExtractRootCauses
	StepGenerateTreatment
	StepExtractTreatment
	StepCompileReport
)

// Steps in execution order
var Steps = []Step{
	StepPreprocess,
	StepVisionAnalyze,
	StepExtractDiseases,
	StepExtractRootCauses,
	StepGenerateTreatment,
	StepExtractTreatment,
	StepCompileReport,
}

func (s Step) String() string {
	switch s {
	case StepPreprocess:
		return "Preprocess"
	case StepVisionAnalyze:
		return "VisionAnalyze"
	case StepExtractDiseases:
		return "ExtractDiseases"
	case StepExtractRootCauses:
		return "ExtractRootCauses"
	case StepGenerateTreatment:
		return "GenerateTreatment"
	case StepExtractTreatment:
		return "ExtractTreatment"
	case StepCompileReport:
		return "CompileReport"
	}
	return "Step(" + strconv.Itoa(int(s)) + ")"
}

// Terminal progress labels
const (
	LabelCompleted = "Completed"
	LabelFailed    = "Failed"
)

// ProgressEvent is delivered before the step's work begins. The terminal
// event follows the last started step with Label "Completed" or
// "Failed: <reason>".
type ProgressEvent struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Terminal reports whether the event closes the run.
func (e ProgressEvent) Terminal() bool {
	return e.Label == LabelCompleted || strings.HasPrefix(e.Label, LabelFailed)
}

// ProgressFunc observer supplied by the caller; may be nil.
type ProgressFunc func(ProgressEvent)

// Collect returns an observer that appends events to dst.
func Collect(dst *[]ProgressEvent) ProgressFunc {
	return func(e ProgressEvent) { *dst = append(*dst, e) }
}
