package simulated

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

// Name reported by the simulated client
const Name = "simulated"

type profile struct {
	quality  string
	findings []string
	diseases []string
	causes   []string
}

var profiles = map[analysis.ImageType]profile{
	analysis.ImageXRay: {
		quality:  "Good quality with adequate contrast and positioning.",
		findings: []string{"Patchy opacity in the right lower lung field", "Air bronchogram pattern visible", "Heart size within normal limits"},
		diseases: []string{"Community-acquired pneumonia (78%) - right lower lobe consolidation with air bronchograms", "Acute bronchitis (15%) - mild peribronchial thickening"},
		causes:   []string{"Bacterial infection, most likely Streptococcus pneumoniae", "Impaired airway clearance following a recent viral illness"},
	},
	analysis.ImageMRI: {
		quality:  "Adequate signal-to-noise ratio; mild motion artefact.",
		findings: []string{"Focal T2 hyperintensity in the left frontal white matter", "No mass effect or midline shift"},
		diseases: []string{"Small vessel ischemic change (65%) - scattered periventricular T2 hyperintensities", "Demyelinating lesion (20%) - ovoid lesion morphology"},
		causes:   []string{"Chronic microvascular disease related to hypertension", "Age-related white matter change"},
	},
	analysis.ImageCTScan: {
		quality:  "Diagnostic quality axial series without contrast.",
		findings: []string{"Ground-glass opacity in both lower lobes", "No pleural effusion"},
		diseases: []string{"Viral pneumonitis (70%) - bilateral peripheral ground-glass opacities", "Early interstitial lung disease (12%) - subpleural distribution"},
		causes:   []string{"Viral lower respiratory tract infection", "Inflammatory response of the alveolar walls"},
	},
	analysis.ImageECG: {
		quality:  "Clear 12-lead tracing with minimal baseline wander.",
		findings: []string{"Irregularly irregular rhythm", "Absent P waves", "Ventricular rate around 110 bpm"},
		diseases: []string{"Atrial fibrillation (82%) - irregular RR intervals without discernible P waves", "Sinus tachycardia (8%) - elevated rate"},
		causes:   []string{"Atrial structural remodelling associated with hypertension", "Possible thyroid dysfunction or electrolyte imbalance"},
	},
	analysis.ImageUltrasound: {
		quality:  "Good acoustic window; standard views obtained.",
		findings: []string{"Gallbladder wall thickening of 5 mm", "Echogenic focus with posterior acoustic shadowing"},
		diseases: []string{"Acute calculous cholecystitis (74%) - wall thickening with shadowing gallstone", "Biliary colic (18%) - gallstone without pericholecystic fluid"},
		causes:   []string{"Gallstone obstruction of the cystic duct", "Bile stasis with secondary inflammation"},
	},
}

type medication struct {
	name, dosage, duration, kind, contra string
}

type planStage struct {
	activities, monitoring, warning string
}

type treatment struct {
	medications []medication
	plan        [4]planStage // one per planDays entry
	prognosis   string
}

var planDays = [4]string{"Days 1-3", "Days 4-7", "Days 8-13", "Day 14"}

// treatments per modality, matching the primary diagnosis of profiles
var treatments = map[analysis.ImageType]treatment{
	analysis.ImageXRay: {
		medications: []medication{
			{"Amoxicillin-clavulanate", "875/125 mg twice daily with food", "7 days", "Antibiotic", "Penicillin allergy, history of cholestatic jaundice"},
			{"Paracetamol", "500-1000 mg every 6 hours as needed, maximum 4 g per day", "5 days", "Analgesic and antipyretic", "Severe hepatic impairment"},
			{"Guaifenesin", "200-400 mg every 4 hours as needed", "7 days", "Expectorant", "Persistent cough from asthma or smoking"},
		},
		plan: [4]planStage{
			{"Rest at home, drink 2-3 litres of fluid daily, take medications on schedule", "Record temperature and symptoms twice daily", "Breathing difficulty, chest pain or confusion require emergency care"},
			{"Light activity around the house as tolerated", "Check temperature daily and note appetite", "Fever returning after improvement"},
			{"Gradually increase activity; complete the antibiotic course", "Track cough and energy levels", "Symptoms worsening or not improving"},
			{"Resume normal routine if symptom free", "Attend the follow-up appointment and repeat chest X-ray if advised", "Any new or recurring symptoms"},
		},
		prognosis: "Good with adherence; expected recovery within two weeks.",
	},
	analysis.ImageMRI: {
		medications: []medication{
			{"Aspirin", "75-100 mg once daily", "Long term", "Antiplatelet", "Active bleeding, peptic ulcer disease"},
			{"Atorvastatin", "20-40 mg once daily in the evening", "Long term", "Statin", "Active liver disease, pregnancy"},
			{"Amlodipine", "5 mg once daily", "Long term", "Calcium channel blocker", "Severe aortic stenosis, cardiogenic shock"},
		},
		plan: [4]planStage{
			{"Normal activity with regular sleep; reduce salt intake", "Measure blood pressure morning and evening", "Sudden weakness, speech difficulty or facial droop require emergency care"},
			{"Begin 20 minutes of daily walking", "Record blood pressure readings and any headaches", "Severe headache or visual disturbance"},
			{"Continue exercise and a low-fat diet", "Check for medication side effects such as muscle pain", "New numbness or balance problems"},
			{"Keep the new routine", "Attend neurology follow-up with the blood pressure log", "Any new neurological symptoms"},
		},
		prognosis: "Stable with risk factor control; lesions are monitored with follow-up imaging.",
	},
	analysis.ImageCTScan: {
		medications: []medication{
			{"Paracetamol", "500-1000 mg every 6 hours as needed, maximum 4 g per day", "7 days", "Analgesic and antipyretic", "Severe hepatic impairment"},
			{"Prednisolone", "30 mg once daily in the morning", "5 days", "Corticosteroid", "Untreated systemic infection, uncontrolled diabetes"},
			{"Dextromethorphan", "10-20 mg every 4 hours as needed", "7 days", "Antitussive", "Use with MAO inhibitors"},
		},
		plan: [4]planStage{
			{"Rest, isolate while symptomatic, drink plenty of fluids", "Measure oxygen saturation and temperature three times daily", "Oxygen saturation below 94% or breathlessness at rest require emergency care"},
			{"Light activity indoors; breathing exercises twice daily", "Check oxygen saturation twice daily", "Fever returning or worsening cough"},
			{"Increase activity gradually", "Track exercise tolerance", "Breathlessness on mild exertion"},
			{"Resume normal routine if symptom free", "Attend follow-up and repeat CT if advised", "Any new or recurring symptoms"},
		},
		prognosis: "Good in most cases; full recovery expected within two to three weeks.",
	},
	analysis.ImageECG: {
		medications: []medication{
			{"Bisoprolol", "2.5-5 mg once daily", "Long term", "Beta blocker", "Severe bradycardia, decompensated heart failure, severe asthma"},
			{"Apixaban", "5 mg twice daily", "Long term", "Direct oral anticoagulant", "Active bleeding, mechanical heart valve"},
			{"Magnesium supplement", "300 mg once daily", "14 days", "Electrolyte replacement", "Severe renal impairment"},
		},
		plan: [4]planStage{
			{"Avoid strenuous exercise, caffeine and alcohol; take medications on schedule", "Record pulse rate and rhythm twice daily", "Chest pain, fainting or severe breathlessness require emergency care"},
			{"Light walking as tolerated", "Check pulse and blood pressure daily", "Palpitations with dizziness"},
			{"Gradually increase activity", "Watch for bruising or bleeding while on anticoagulation", "Blood in urine or stool"},
			{"Continue the routine", "Attend cardiology follow-up with a repeat ECG", "Any new or recurring symptoms"},
		},
		prognosis: "Good with rate control and anticoagulation; rhythm is reassessed at follow-up.",
	},
	analysis.ImageUltrasound: {
		medications: []medication{
			{"Ceftriaxone", "1-2 g intravenously once daily", "5 days", "Antibiotic", "Severe cephalosporin allergy"},
			{"Metronidazole", "500 mg every 8 hours", "5 days", "Antibiotic", "Alcohol use during therapy, first trimester pregnancy"},
			{"Ibuprofen", "400 mg every 8 hours with food as needed", "5 days", "Nonsteroidal anti-inflammatory drug", "Peptic ulcer, severe renal impairment"},
		},
		plan: [4]planStage{
			{"Fasting or clear fluids as advised, rest", "Record temperature and abdominal pain twice daily", "Jaundice, high fever or severe abdominal pain require emergency care"},
			{"Low-fat diet, small frequent meals", "Check temperature daily and note appetite", "Pain returning after meals"},
			{"Normal light activity; keep the low-fat diet", "Track pain episodes", "Dark urine or pale stools"},
			{"Resume normal routine", "Attend the surgical review for cholecystectomy planning", "Any new or recurring symptoms"},
		},
		prognosis: "Good; definitive treatment is cholecystectomy once inflammation settles.",
	},
}

// Client returns canned responses in the same labelled layout the real
// models are asked for. Output depends only on the prompt.
type Client struct{}

func New() *Client { return &Client{} }

func (*Client) Name() string { return Name }

func (*Client) GenerateFromImage(_ context.Context, _ ai.Image, prompt string) (string, error) {
	t := modalityOf(prompt)
	p := profiles[t]

	var b strings.Builder
	fmt.Fprintf(&b, "Simulated analysis of the %s image. Consult a qualified radiologist.\n\n", t.Label())
	fmt.Fprintf(&b, "%s: %s\n\n", findings.LabelImageQuality, p.quality)
	writeList(&b, findings.LabelKeyFindings, p.findings)
	writeList(&b, findings.LabelDiseases, p.diseases)
	writeList(&b, findings.LabelRootCauses, p.causes)
	return b.String(), nil
}

func (*Client) GenerateFromText(_ context.Context, prompt string) (string, error) {
	diagnosis := "the identified condition"
	if ds := findings.ExtractDiseases(prompt); len(ds) > 0 {
		diagnosis = ds[0].Name
		if ds[0].Confidence.Known {
			diagnosis += " (" + ds[0].Confidence.Percent() + ")"
		}
	}

	tp := treatments[modalityOf(prompt)]

	var b strings.Builder
	b.WriteString("=== MEDICATIONS ===\n")
	for i, m := range tp.medications {
		fmt.Fprintf(&b, "MEDICATION %d:\nName: %s\nDosage: %s\nDuration: %s\nType: %s\nContraindications: %s\n\n",
			i+1, m.name, m.dosage, m.duration, m.kind, m.contra)
	}
	b.WriteString("=== CARE PLAN ===\n")
	for i, days := range planDays {
		st := tp.plan[i]
		fmt.Fprintf(&b, "%s:\nActivities: %s\nMonitoring: %s\nWarning signs: %s\n", days, st.activities, st.monitoring, st.warning)
	}
	b.WriteString("\n=== DOCTOR SUMMARY ===\n")
	fmt.Fprintf(&b, "Clinical Synopsis: Imaging findings are consistent with %s. Findings were produced by the simulated model and require clinical correlation.\n", diagnosis)
	fmt.Fprintf(&b, "Primary Diagnosis: %s\n", diagnosis)
	b.WriteString(`Treatment Protocol: Targeted pharmacotherapy, supportive care and symptom control with reassessment at 48-72 hours.
Critical Actions: Confirm the diagnosis clinically and review allergies before prescribing.
`)
	fmt.Fprintf(&b, "Prognosis: %s\n", tp.prognosis)
	return b.String(), nil
}

func modalityOf(prompt string) analysis.ImageType {
	for _, t := range analysis.ImageTypes {
		if strings.Contains(prompt, t.Label()+" ") {
			return t
		}
	}
	return analysis.ImageXRay
}

func writeList(b *strings.Builder, l findings.Label, items []string) {
	b.WriteString(string(l) + ":\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("\n")
}
