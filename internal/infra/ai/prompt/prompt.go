package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

// GetSystemPrompt sets the role and the labelled-section output contract.
func GetSystemPrompt() string {
	return `You are an expert medical AI assistant analyzing medical images for healthcare professionals.

Guidelines:
- Be thorough and professional; use medical terminology appropriately.
- Provide evidence-based observations and note limitations of the analysis.
- State a confidence percentage for every diagnosis.
- Always recommend consultation with healthcare professionals.
- Answer in plain text using exactly the section labels requested, each label in capitals on its own line followed by a colon. Do not use JSON or code fences.`
}

// Vision builds the prompt for the image call: impression, diagnoses with
// confidence and root causes in one response.
func Vision(t analysis.ImageType) string {
	return fmt.Sprintf(`Analyze this %s image and respond with these sections:

%s:
Technical adequacy and visible structures.

%s:
- One abnormality or observation per line.

%s:
- One diagnosis per line as: Name (NN%%) - supporting evidence
- Include the primary diagnosis first, then differentials.

%s:
- One primary etiology or pathophysiology factor per line.

Be concise and specific.`,
		t.Label(),
		findings.LabelImageQuality,
		findings.LabelKeyFindings,
		findings.LabelDiseases,
		findings.LabelRootCauses,
	)
}

// Treatment builds the prompt for the text call from the extracted findings:
// medications, a 14-day care plan and a doctor summary in one response.
func Treatment(t analysis.ImageType, diseases []findings.Disease, rootCauses []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on this %s analysis:\n\n", t.Label())
	b.WriteString(findings.FormatDiseases(diseases))
	b.WriteString("\n")
	b.WriteString(findings.FormatRootCauses(rootCauses))
	b.WriteString(`
Generate treatment recommendations in this EXACT format (use actual medical information, NOT placeholders):

=== MEDICATIONS ===
MEDICATION 1:
Name: specific drug name
Dosage: exact dose and frequency
Duration: time period
Type: drug class
Contraindications: key warnings

(repeat for up to three medications)

=== CARE PLAN ===
Day 1:
Activities: rest, diet and activity guidance
Monitoring: what to measure or observe
Warning signs: symptoms requiring immediate attention

(one block per day up to Day 14; "Days 8-14:" may group days with identical guidance)

=== DOCTOR SUMMARY ===
Clinical Synopsis: overview of findings and diagnosis in 2-3 sentences
Primary Diagnosis: main diagnosis with confidence percentage
Treatment Protocol: step-by-step treatment approach
Critical Actions: immediate actions needed
Prognosis: expected outcome and recovery timeline

Provide real, specific medication names and dosages based on the diagnosis. Do NOT use placeholders or N/A.`)
	return b.String()
}
