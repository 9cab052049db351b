package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treatmentResponse = `Here is the treatment plan.

=== MEDICATIONS ===
MEDICATION 1:
Name: Amoxicillin
Dosage: 500 mg three times daily
Duration: 7 days
Type: Antibiotic
Contraindications: Penicillin allergy

MEDICATION 2:
Name: Paracetamol
Dose: 1 g every 6 hours
Contraindications:
- Severe liver disease
- Alcohol dependence

MEDICATION 3:
Name: N/A

=== CARE PLAN ===
Week 1 (Days 1-7):
- Rest and hydration
- Monitor temperature twice daily
- Seek care immediately if breathing worsens
Week 2 (Days 8-14):
Activities: Gradual return to light activity
Day 14: Follow-up chest X-ray

=== DOCTOR SUMMARY ===
Clinical Synopsis: Right lower lobe pneumonia.
**Primary Diagnosis:** Community acquired pneumonia


Prognosis: Good
`

func TestExtractMedications_Blocks(t *testing.T) {
	got := ExtractMedications(treatmentResponse)
	require.Len(t, got, 2)
	assert.Equal(t, Medication{
		Name:              "Amoxicillin",
		Dosage:            "500 mg three times daily",
		Duration:          "7 days",
		Type:              "Antibiotic",
		Contraindications: "Penicillin allergy",
	}, got[0])
	assert.Equal(t, Medication{
		Name:              "Paracetamol",
		Dosage:            "1 g every 6 hours",
		Contraindications: "Severe liver disease; Alcohol dependence",
	}, got[1])
}

func TestExtractMedications_TableAndBullets(t *testing.T) {
	raw := `MEDICATIONS:
| Name | Dosage | Duration | Contraindications |
|------|--------|----------|-------------------|
| Ibuprofen | 400 mg | 5 days | Peptic ulcer |
- Salbutamol inhaler: 2 puffs as needed
`
	got := ExtractMedications(raw)
	assert.Equal(t, []Medication{
		{Name: "Ibuprofen", Dosage: "400 mg", Duration: "5 days", Contraindications: "Peptic ulcer"},
		{Name: "Salbutamol inhaler", Dosage: "2 puffs as needed"},
	}, got)
}

func TestExtractMedications_Missing(t *testing.T) {
	assert.Empty(t, ExtractMedications("CARE PLAN:\nDay 1: rest\n"))
	assert.Empty(t, ExtractMedications("MEDICATIONS:\nNone\n"))
}

func TestExtractCarePlan_Weeks(t *testing.T) {
	got := ExtractCarePlan(treatmentResponse)
	require.Len(t, got, CarePlanDays)

	for i := 0; i < 7; i++ {
		assert.Equal(t, i+1, got[i].Day)
		assert.Equal(t, "Rest and hydration", got[i].Activities)
		assert.Equal(t, "Monitor temperature twice daily", got[i].Monitoring)
		assert.Equal(t, "Seek care immediately if breathing worsens", got[i].WarningSigns)
	}
	for i := 7; i < 13; i++ {
		assert.Equal(t, CarePlanDay{Day: i + 1, Activities: "Gradual return to light activity"}, got[i])
	}
	assert.Equal(t, CarePlanDay{
		Day:        14,
		Activities: "Gradual return to light activity",
		Monitoring: "Follow-up chest X-ray",
	}, got[13])
}

func TestExtractCarePlan_NoDayHeaders(t *testing.T) {
	got := ExtractCarePlan("CARE PLAN:\nRest at home.\nMonitor oxygen saturation.\n")
	require.Len(t, got, CarePlanDays)
	for _, d := range got {
		assert.Equal(t, "Rest at home.", d.Activities)
		assert.Equal(t, "Monitor oxygen saturation.", d.Monitoring)
		assert.Empty(t, d.WarningSigns)
	}
}

func TestExtractCarePlan_Missing(t *testing.T) {
	assert.Nil(t, ExtractCarePlan("MEDICATIONS:\n- Ibuprofen\n"))
	assert.Nil(t, ExtractCarePlan("CARE PLAN:\n\n"))
}

func TestExtractDoctorSummary(t *testing.T) {
	want := "Clinical Synopsis: Right lower lobe pneumonia.\n" +
		"Primary Diagnosis: Community acquired pneumonia\n" +
		"\n" +
		"Prognosis: Good"
	assert.Equal(t, want, ExtractDoctorSummary(treatmentResponse))
	assert.Empty(t, ExtractDoctorSummary("MEDICATIONS:\n- Ibuprofen\n"))
}

func TestTreatmentIdempotent(t *testing.T) {
	meds := ExtractMedications(treatmentResponse)
	assert.Equal(t, meds, ExtractMedications(FormatMedications(meds)))

	plan := ExtractCarePlan(treatmentResponse)
	assert.Equal(t, plan, ExtractCarePlan(FormatCarePlan(plan)))

	summary := ExtractDoctorSummary(treatmentResponse)
	assert.Equal(t, summary, ExtractDoctorSummary(FormatDoctorSummary(summary)))

	combined := FormatMedications(meds) + "\n" + FormatCarePlan(plan) + "\n" + FormatDoctorSummary(summary)
	assert.Equal(t, meds, ExtractMedications(combined))
	assert.Equal(t, plan, ExtractCarePlan(combined))
	assert.Equal(t, summary, ExtractDoctorSummary(combined))
}
