package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

func reportState() *domain.AnalysisState {
	plan := make([]findings.CarePlanDay, findings.CarePlanDays)
	for i := range plan {
		plan[i] = findings.CarePlanDay{Day: i + 1, Activities: "Rest"}
	}
	return &domain.AnalysisState{
		ID:                "c0ffee00-0000-4000-8000-000000000001",
		ImageType:         domain.ImageXRay,
		Timestamp:         testTime,
		RawVisionResponse: "KEY FINDINGS: right lower lobe opacity",
		Diseases: []findings.Disease{
			{Name: "Pneumonia", Confidence: findings.Score(0.853)},
			{Name: "Effusion", Confidence: findings.Unknown},
		},
		RootCauses:    []string{"Bacterial infection"},
		Medications:   []findings.Medication{{Name: "Amoxicillin", Dosage: "500 mg", Type: "Antibiotic"}},
		CarePlan:      plan,
		DoctorSummary: "Primary Diagnosis: Pneumonia",
	}
}

func TestCompileReport(t *testing.T) {
	st := reportState()
	got := CompileReport(st)

	assert.True(t, strings.HasPrefix(got, "MEDICAL IMAGE ANALYSIS REPORT\n"))
	for _, want := range []string{
		"Report ID: c0ffee00-0000-4000-8000-000000000001\n",
		"Generated: 2025-03-04T10:30:00Z\n",
		"Image Type: X-RAY\n",
		"1. COMPREHENSIVE MEDICAL ANALYSIS\n\nKEY FINDINGS: right lower lobe opacity\n",
		"- Pneumonia: 85.3%\n",
		"- Effusion: unknown\n",
		"- Bacterial infection\n",
		"1. Amoxicillin\n   Type: Antibiotic\n   Dosage: 500 mg\n   Duration: n/a\n",
		"Day 14\n   Activities: Rest\n   Monitoring: -\n",
		"4. DOCTOR SUMMARY\n\nPrimary Diagnosis: Pneumonia\n",
		"IMPORTANT MEDICAL DISCLAIMER",
	} {
		assert.Contains(t, got, want)
	}
	assert.Equal(t, got, CompileReport(st), "report must be deterministic")

	// sections stay in order
	order := []string{"1. COMPREHENSIVE", "2. MEDICATION", "3. TWO-WEEK CARE PLAN", "4. DOCTOR SUMMARY", "DISCLAIMER", "Report End"}
	last := -1
	for _, s := range order {
		i := strings.Index(got, s)
		assert.Greater(t, i, last, s)
		last = i
	}
}

func TestCompileReport_EmptySections(t *testing.T) {
	got := CompileReport(&domain.AnalysisState{ID: "x", ImageType: domain.ImageECG, Timestamp: testTime})
	assert.Contains(t, got, "Image Type: ECG\n")
	assert.Contains(t, got, "No analysis available.")
	assert.Contains(t, got, "- No diseases identified.\n")
	assert.Contains(t, got, "No medication recommendations available.\n")
	assert.Contains(t, got, "No care plan available.\n")
	assert.Contains(t, got, "No doctor summary available.")
	assert.NotContains(t, got, "Root Causes:")
}
