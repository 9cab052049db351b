package analysis

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

// ImageType enum (modality)
type ImageType string

const (
	ImageXRay       ImageType = "x-ray"
	ImageMRI        ImageType = "mri"
	ImageCTScan     ImageType = "ct-scan"
	ImageECG        ImageType = "ecg"
	ImageUltrasound ImageType = "ultrasound"
)

// ImageTypes in display order
var ImageTypes = []ImageType{ImageXRay, ImageMRI, ImageCTScan, ImageECG, ImageUltrasound}

// Label returns the display name used by the UI.
func (t ImageType) Label() string {
	switch t {
	case ImageXRay:
		return "X-Ray"
	case ImageMRI:
		return "MRI"
	case ImageCTScan:
		return "CT Scan"
	case ImageECG:
		return "ECG"
	case ImageUltrasound:
		return "Ultrasound"
	}
	return string(t)
}

func (t ImageType) Valid() bool {
	for _, v := range ImageTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseImageType accepts enum values and UI labels ("X-Ray", "CT Scan", "EKG").
func ParseImageType(s string) (ImageType, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(k)
	switch k {
	case "xray", "radiograph":
		return ImageXRay, nil
	case "mri":
		return ImageMRI, nil
	case "ct", "ctscan":
		return ImageCTScan, nil
	case "ecg", "ekg":
		return ImageECG, nil
	case "ultrasound", "us", "sonography":
		return ImageUltrasound, nil
	}
	return "", fmt.Errorf("%w: unsupported image type %q", ErrInvalidFormat, s)
}

// Status enum
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// AnalysisState is owned by exactly one pipeline run. Fields are filled in
// step order and nothing is added after Err is set.
type AnalysisState struct {
	ID        string    `json:"id"`
	ImageType ImageType `json:"image_type"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Step      Step      `json:"step"`

	Image image.Image `json:"-"`

	RawVisionResponse string                 `json:"raw_vision_response,omitempty"`
	Diseases          []findings.Disease     `json:"diseases"`
	RootCauses        []string               `json:"root_causes"`
	RawTextResponse   string                 `json:"raw_text_response,omitempty"`
	Medications       []findings.Medication  `json:"medications"`
	CarePlan          []findings.CarePlanDay `json:"care_plan"`
	DoctorSummary     string                 `json:"doctor_summary,omitempty"`
	FinalReport       string                 `json:"final_report,omitempty"`

	// Degraded lists sections that were missing or unparseable.
	Degraded []findings.Label `json:"degraded,omitempty"`

	Err error `json:"-"`
}

// ErrorMessage buat JSON / UI
func (s *AnalysisState) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// MarshalJSON adds error and error_kind to the exported fields.
func (s *AnalysisState) MarshalJSON() ([]byte, error) {
	type alias AnalysisState
	return json.Marshal(struct {
		*alias
		Error     string `json:"error,omitempty"`
		ErrorKind Kind   `json:"error_kind,omitempty"`
	}{(*alias)(s), s.ErrorMessage(), KindOf(s.Err)})
}

// PrimaryDiagnosis returns the highest-confidence disease name, or "".
func (s *AnalysisState) PrimaryDiagnosis() string {
	best := -1
	for i, d := range s.Diseases {
		if best < 0 {
			best = i
			continue
		}
		b := s.Diseases[best].Confidence
		if d.Confidence.Known && (!b.Known || d.Confidence.Value > b.Value) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return s.Diseases[best].Name
}
