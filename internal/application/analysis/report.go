package analysis

import (
	"strconv"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

const systemName = "MedImage Analyzer"

const disclaimer = `IMPORTANT MEDICAL DISCLAIMER

THIS REPORT IS FOR INFORMATIONAL AND EDUCATIONAL PURPOSES ONLY.

This AI-generated analysis is intended to support healthcare decision-making
but DOES NOT replace professional medical advice, diagnosis, or treatment.

1. Not a substitute for professional care: always consult a qualified
   healthcare provider for diagnosis and treatment.
2. AI limitations: the analysis is based on automated image interpretation
   and may miss clinical nuances.
3. Clinical correlation required: diagnosis must incorporate patient history,
   physical examination and laboratory findings.
4. Medication guidance: every medication must be reviewed and prescribed by a
   licensed healthcare provider.
5. Emergencies: call emergency services or go to the nearest emergency room.
6. No patient-doctor relationship is established by this report.
7. Privacy: this report may contain sensitive medical information.
`

const rule = "------------------------------------------------------------\n"

// CompileReport renders the final text report. The output depends only on
// the state, so the same state always yields the same bytes.
func CompileReport(st *domain.AnalysisState) string {
	var b strings.Builder
	ts := st.Timestamp.UTC().Format(time.RFC3339)

	b.WriteString("MEDICAL IMAGE ANALYSIS REPORT\n\n")
	b.WriteString("Report ID: " + st.ID + "\n")
	b.WriteString("Generated: " + ts + "\n")
	b.WriteString("Image Type: " + strings.ToUpper(string(st.ImageType)) + "\n")
	b.WriteString("Analysis System: " + systemName + "\n")
	b.WriteString(rule)

	b.WriteString("\n1. COMPREHENSIVE MEDICAL ANALYSIS\n\n")
	b.WriteString(orDefault(strings.TrimSpace(st.RawVisionResponse), "No analysis available."))
	b.WriteString("\n\nDiagnostic Confidence Scores:\n")
	if len(st.Diseases) == 0 {
		b.WriteString("- No diseases identified.\n")
	}
	for _, d := range st.Diseases {
		b.WriteString("- " + d.Name + ": " + d.Confidence.Percent() + "\n")
	}
	if len(st.RootCauses) > 0 {
		b.WriteString("\nRoot Causes:\n")
		for _, c := range st.RootCauses {
			b.WriteString("- " + c + "\n")
		}
	}
	b.WriteString(rule)

	b.WriteString("\n2. MEDICATION RECOMMENDATIONS\n\n")
	if len(st.Medications) == 0 {
		b.WriteString("No medication recommendations available.\n")
	}
	for i, m := range st.Medications {
		b.WriteString(strconv.Itoa(i+1) + ". " + m.Name + "\n")
		b.WriteString("   Type: " + orDefault(m.Type, "n/a") + "\n")
		b.WriteString("   Dosage: " + orDefault(m.Dosage, "n/a") + "\n")
		b.WriteString("   Duration: " + orDefault(m.Duration, "n/a") + "\n")
		b.WriteString("   Contraindications: " + orDefault(m.Contraindications, "n/a") + "\n\n")
	}
	b.WriteString(rule)

	b.WriteString("\n3. TWO-WEEK CARE PLAN\n\n")
	writeCarePlan(&b, st.CarePlan)
	b.WriteString(rule)

	b.WriteString("\n4. DOCTOR SUMMARY\n\n")
	b.WriteString(orDefault(st.DoctorSummary, "No doctor summary available."))
	b.WriteString("\n")
	b.WriteString(rule)

	b.WriteString("\n" + disclaimer)
	b.WriteString(rule)
	b.WriteString("Report End | Generated by " + systemName + " | " + ts + "\n")
	return b.String()
}

func writeCarePlan(b *strings.Builder, days []findings.CarePlanDay) {
	if len(days) == 0 {
		b.WriteString("No care plan available.\n")
		return
	}
	for _, d := range days {
		b.WriteString("Day " + strconv.Itoa(d.Day) + "\n")
		b.WriteString("   Activities: " + orDefault(d.Activities, "-") + "\n")
		b.WriteString("   Monitoring: " + orDefault(d.Monitoring, "-") + "\n")
		b.WriteString("   Warning signs: " + orDefault(d.WarningSigns, "-") + "\n")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
