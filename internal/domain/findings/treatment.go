package findings

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	medHeaderRe = regexp.MustCompile(`(?i)^(?:medication|medicine|drug|rx)\s*#?\s*(\d{1,2})\s*[:.)\-–—]?\s*(.*)$`)
	medFieldRe  = regexp.MustCompile(`(?i)^(name|drug name|medication name|drug|dosage|dose|frequency|route|duration|type|class|drug class|contraindications?|warnings?|precautions?)\s*:\s*(.*)$`)
)

type medField int

const (
	fieldNone medField = iota
	fieldName
	fieldDosage
	fieldDuration
	fieldType
	fieldContra
)

func medFieldOf(key string) medField {
	switch strings.ToLower(key) {
	case "name", "drug name", "medication name", "drug":
		return fieldName
	case "dosage", "dose", "frequency", "route":
		return fieldDosage
	case "duration":
		return fieldDuration
	case "type", "class", "drug class":
		return fieldType
	}
	return fieldContra
}

func (m *Medication) set(f medField, v string) {
	switch f {
	case fieldName:
		m.Name = joinText(m.Name, v)
	case fieldDosage:
		m.Dosage = joinText(m.Dosage, v)
	case fieldDuration:
		m.Duration = joinText(m.Duration, v)
	case fieldType:
		m.Type = joinText(m.Type, v)
	case fieldContra:
		m.Contraindications = joinText(m.Contraindications, v)
	}
}

// ExtractMedications reads MEDICATIONS as "MEDICATION n:" blocks of
// "Field: value" lines, pipe-separated rows
// ("name | dosage | duration | contraindications") or plain bullet lines
// ("name - dosage"). Entries with a placeholder name are dropped.
func ExtractMedications(raw string) []Medication {
	return medicationsFrom(Parse(raw))
}

func medicationsFrom(doc Document) []Medication {
	var (
		out     []Medication
		cur     *Medication
		pending medField
	)
	flush := func() {
		if cur != nil && !isPlaceholder(cur.Name) {
			out = append(out, *cur)
		}
		cur, pending = nil, fieldNone
	}

	for _, line := range doc.Lines(LabelMedications) {
		s := cleanLine(line)
		if s == "" {
			flush()
			continue
		}
		if m := medHeaderRe.FindStringSubmatch(s); m != nil && !medFieldRe.MatchString(s) {
			flush()
			cur = &Medication{}
			if rest := strings.Trim(m[2], sepChars); rest != "" && !isPlaceholder(rest) {
				cur.Name = rest
			}
			continue
		}
		if m := medFieldRe.FindStringSubmatch(s); m != nil {
			f := medFieldOf(m[1])
			if f == fieldName && cur != nil && cur.Name != "" {
				flush()
			}
			if cur == nil {
				cur = &Medication{}
			}
			v := strings.TrimSpace(m[2])
			pending = fieldNone
			if v == "" {
				pending = f
				continue
			}
			if !isPlaceholder(v) || f == fieldName {
				cur.set(f, v)
			}
			continue
		}
		if strings.Contains(s, "|") {
			flush()
			cur = pipeRow(s)
			flush()
			continue
		}
		if cur != nil && pending != fieldNone {
			cur.set(pending, s)
			continue
		}
		if cur != nil && cur.Name == "" {
			cur.Name = s
			continue
		}
		flush()
		name, dosage := splitEvidence(s)
		cur = &Medication{Name: name, Dosage: dosage}
	}
	flush()
	return out
}

// pipeRow returns nil for table header and divider rows.
func pipeRow(s string) *Medication {
	cells := strings.Split(strings.Trim(s, "| "), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if strings.Trim(cells[0], "-: ") == "" || strings.EqualFold(cells[0], "name") {
		return nil
	}
	m := &Medication{}
	fields := []medField{fieldName, fieldDosage, fieldDuration, fieldContra}
	for i, c := range cells {
		if i >= len(fields) || isPlaceholder(c) {
			continue
		}
		m.set(fields[i], c)
	}
	return m
}

// FormatMedications renders medications in the form ExtractMedications
// reads back.
func FormatMedications(ms []Medication) string {
	var b strings.Builder
	b.WriteString(string(LabelMedications) + ":\n")
	for i, m := range ms {
		b.WriteString("MEDICATION " + strconv.Itoa(i+1) + ":\n")
		b.WriteString("Name: " + m.Name + "\n")
		writeField(&b, "Dosage", m.Dosage)
		writeField(&b, "Duration", m.Duration)
		writeField(&b, "Type", m.Type)
		writeField(&b, "Contraindications", m.Contraindications)
		b.WriteString("\n")
	}
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	if value != "" {
		b.WriteString(key + ": " + value + "\n")
	}
}

var (
	dayRangeRe  = regexp.MustCompile(`(?i)^days?\s*(\d{1,2})(?:\s*(?:-|–|to|&|and|through)\s*(\d{1,2}))?\s*(?:[:.)\-–—]\s*(.*))?$`)
	weekRe      = regexp.MustCompile(`(?i)^week\s*(\d)(?:\s*\(\s*days?\s*(\d{1,2})\s*(?:-|–|to)\s*(\d{1,2})\s*\))?\s*(?:[:.)\-–—]\s*(.*))?$`)
	planFieldRe = regexp.MustCompile(`(?i)^(activities|activity|diet|rest|exercise|monitoring|monitor|warning signs?|red flags?|when to seek help|seek (?:immediate )?(?:medical )?(?:help|care|attention)(?: if)?)\s*:\s*(.*)$`)
)

type planField int

const (
	planActivities planField = iota
	planMonitoring
	planWarning
)

var (
	warningWords    = []string{"warning", "seek", "emergency", "immediately", "urgent", "worsen", "red flag", "call your", "call a"}
	monitoringWords = []string{"monitor", "check", "track", "measure", "record", "follow-up", "follow up", "temperature", "blood pressure", "vital"}
)

func planFieldOf(key string) planField {
	k := strings.ToLower(key)
	switch {
	case strings.HasPrefix(k, "monitor"):
		return planMonitoring
	case strings.HasPrefix(k, "warning"), strings.HasPrefix(k, "red flag"),
		strings.HasPrefix(k, "seek"), strings.HasPrefix(k, "when to seek"):
		return planWarning
	}
	return planActivities
}

func classifyPlanLine(s string) planField {
	l := strings.ToLower(s)
	for _, w := range warningWords {
		if strings.Contains(l, w) {
			return planWarning
		}
	}
	for _, w := range monitoringWords {
		if strings.Contains(l, w) {
			return planMonitoring
		}
	}
	return planActivities
}

type planBlock struct {
	from, to int
	day      CarePlanDay
}

func (b *planBlock) add(f planField, v string) {
	switch f {
	case planMonitoring:
		b.day.Monitoring = joinText(b.day.Monitoring, v)
	case planWarning:
		b.day.WarningSigns = joinText(b.day.WarningSigns, v)
	default:
		b.day.Activities = joinText(b.day.Activities, v)
	}
}

// ExtractCarePlan expands CARE PLAN into exactly CarePlanDays daily entries.
// Blocks start at "Day N", "Days N-M" or "Week W" headers. Lines before the
// first header apply to every day. It returns nil when the section is absent
// or carries no usable text.
func ExtractCarePlan(raw string) []CarePlanDay {
	return carePlanFrom(Parse(raw))
}

func carePlanFrom(doc Document) []CarePlanDay {
	general := &planBlock{from: 1, to: CarePlanDays}
	blocks := []*planBlock{general}
	cur := general
	pending, hasPending := planActivities, false

	for _, line := range doc.Lines(LabelCarePlan) {
		s := cleanLine(line)
		if s == "" || isPlaceholder(s) {
			continue
		}
		if from, to, rest, ok := dayHeader(s); ok {
			cur = &planBlock{from: from, to: to}
			blocks = append(blocks, cur)
			hasPending = false
			if rest != "" {
				s = rest
			} else {
				continue
			}
		}
		if m := planFieldRe.FindStringSubmatch(s); m != nil {
			f := planFieldOf(m[1])
			v := strings.TrimSpace(m[2])
			if v == "" {
				pending, hasPending = f, true
				continue
			}
			hasPending = false
			cur.add(f, v)
			continue
		}
		if hasPending {
			cur.add(pending, s)
			continue
		}
		cur.add(classifyPlanLine(s), s)
	}

	days := make([]CarePlanDay, CarePlanDays)
	filled := false
	for i := range days {
		days[i].Day = i + 1
	}
	for _, b := range blocks {
		if b.day.Empty() {
			continue
		}
		filled = true
		for d := b.from; d <= b.to; d++ {
			day := &days[d-1]
			day.Activities = joinText(day.Activities, b.day.Activities)
			day.Monitoring = joinText(day.Monitoring, b.day.Monitoring)
			day.WarningSigns = joinText(day.WarningSigns, b.day.WarningSigns)
		}
	}
	if !filled {
		return nil
	}
	return days
}

func dayHeader(s string) (from, to int, rest string, ok bool) {
	if m := weekRe.FindStringSubmatch(s); m != nil {
		w, _ := strconv.Atoi(m[1])
		from, to = (w-1)*7+1, w*7
		if m[2] != "" {
			from, _ = strconv.Atoi(m[2])
			to, _ = strconv.Atoi(m[3])
		}
		rest = m[4]
	} else if m := dayRangeRe.FindStringSubmatch(s); m != nil {
		from, _ = strconv.Atoi(m[1])
		to = from
		if m[2] != "" {
			to, _ = strconv.Atoi(m[2])
		}
		rest = m[3]
	} else {
		return 0, 0, "", false
	}
	if from < 1 {
		from = 1
	}
	if to > CarePlanDays {
		to = CarePlanDays
	}
	if from > to {
		return 0, 0, "", false
	}
	return from, to, strings.TrimSpace(rest), true
}

// FormatCarePlan renders days in the form ExtractCarePlan reads back.
func FormatCarePlan(days []CarePlanDay) string {
	var b strings.Builder
	b.WriteString(string(LabelCarePlan) + ":\n")
	for _, d := range days {
		b.WriteString("Day " + strconv.Itoa(d.Day) + ":\n")
		writeField(&b, "Activities", d.Activities)
		writeField(&b, "Monitoring", d.Monitoring)
		writeField(&b, "Warning signs", d.WarningSigns)
	}
	return b.String()
}

// ExtractDoctorSummary returns the DOCTOR SUMMARY body as text.
func ExtractDoctorSummary(raw string) string {
	return Parse(raw).Text(LabelDoctorSummary)
}

// FormatDoctorSummary renders a summary in the form ExtractDoctorSummary
// reads back.
func FormatDoctorSummary(summary string) string {
	return string(LabelDoctorSummary) + ":\n" + summary + "\n"
}
