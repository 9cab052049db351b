package findings

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Label identifies a section of a model response.
type Label string

const (
	LabelImageQuality  Label = "IMAGE QUALITY"
	LabelKeyFindings   Label = "KEY FINDINGS"
	LabelDiseases      Label = "DISEASES"
	LabelRootCauses    Label = "ROOT CAUSES"
	LabelMedications   Label = "MEDICATIONS"
	LabelCarePlan      Label = "CARE PLAN"
	LabelDoctorSummary Label = "DOCTOR SUMMARY"
)

var aliases = map[string]Label{
	"IMAGE QUALITY":            LabelImageQuality,
	"IMAGE QUALITY ASSESSMENT": LabelImageQuality,
	"KEY FINDINGS":             LabelKeyFindings,
	"FINDINGS":                 LabelKeyFindings,
	"INITIAL IMPRESSION":       LabelKeyFindings,
	"DISEASES":                 LabelDiseases,
	"IDENTIFIED DISEASES":      LabelDiseases,
	"DIAGNOSIS":                LabelDiseases,
	"DIAGNOSES":                LabelDiseases,
	"DIFFERENTIAL DIAGNOSIS":   LabelDiseases,
	"CONDITIONS":               LabelDiseases,
	"ROOT CAUSES":              LabelRootCauses,
	"ROOT CAUSE":               LabelRootCauses,
	"ETIOLOGY":                 LabelRootCauses,
	"MEDICATIONS":              LabelMedications,
	"RECOMMENDED MEDICATIONS":  LabelMedications,
	"PRESCRIPTIONS":            LabelMedications,
	"CARE PLAN":                LabelCarePlan,
	"TWO-WEEK CARE PLAN":       LabelCarePlan,
	"2-WEEK CARE PLAN":         LabelCarePlan,
	"14-DAY CARE PLAN":         LabelCarePlan,
	"DOCTOR SUMMARY":           LabelDoctorSummary,
	"CLINICAL SUMMARY":         LabelDoctorSummary,
	"PHYSICIAN SUMMARY":        LabelDoctorSummary,
}

// longest alias first so prefix matching is deterministic
var aliasKeys = func() []string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// free-text sections absorb foreign labels instead of closing on them
var freeText = map[Label]bool{
	LabelImageQuality:  true,
	LabelKeyFindings:   true,
	LabelCarePlan:      true,
	LabelDoctorSummary: true,
}

// fieldLine reports lines a list section reads as "Key: value" fields even
// when the key is written in capitals.
func fieldLine(l Label, line string) bool {
	s := cleanLine(line)
	switch l {
	case LabelMedications:
		return medFieldRe.MatchString(s)
	case LabelDiseases:
		return evidenceRe.MatchString(s)
	}
	return false
}

var (
	numberingRe   = regexp.MustCompile(`^(?:[-*•+·▪►]+\s*|\(?\d{1,2}[.)]\s+)+`)
	parentheticRe = regexp.MustCompile(`\([^)]*\)`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

type lineKind int

const (
	bodyLine lineKind = iota
	knownLabel
	foreignLabel
)

// Section is one labelled block of a response.
type Section struct {
	Label Label
	Lines []string
}

// Document is a response split into labelled sections. Text before the first
// label and bodies of foreign labels are dropped.
type Document struct {
	sections map[Label]*Section
}

// Parse splits raw model output into sections. It never fails; a response
// without labels yields an empty document.
func Parse(raw string) Document {
	doc := Document{sections: map[Label]*Section{}}
	var cur *Section
	for _, line := range splitLines(raw) {
		label, rest, kind := classify(line)
		switch kind {
		case knownLabel:
			sec, ok := doc.sections[label]
			if !ok {
				sec = &Section{Label: label}
				doc.sections[label] = sec
			}
			cur = sec
			if rest != "" {
				cur.Lines = append(cur.Lines, rest)
			}
			continue
		case foreignLabel:
			if cur != nil && !freeText[cur.Label] && !fieldLine(cur.Label, line) {
				cur = nil
				continue
			}
		}
		if cur != nil {
			cur.Lines = append(cur.Lines, strings.TrimSpace(line))
		}
	}
	return doc
}

// Has reports whether the section exists and has a non-blank line.
func (d Document) Has(l Label) bool {
	for _, line := range d.Lines(l) {
		if line != "" {
			return true
		}
	}
	return false
}

// Lines returns the trimmed body lines of a section, blanks included.
func (d Document) Lines(l Label) []string {
	if sec, ok := d.sections[l]; ok {
		return sec.Lines
	}
	return nil
}

// Text returns a section body with emphasis removed, outer blank lines
// dropped and runs of blank lines collapsed to one.
func (d Document) Text(l Label) string {
	var out []string
	blank := false
	for _, line := range d.Lines(l) {
		line = stripEmphasis(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// SectionText returns the body text of one labelled section of raw.
func SectionText(raw string, l Label) string {
	return Parse(raw).Text(l)
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

func classify(line string) (Label, string, lineKind) {
	s := stripEmphasis(strings.TrimSpace(line))
	if s == "" {
		return "", "", bodyLine
	}

	heading := false
	switch {
	case strings.HasPrefix(s, "#"):
		s = strings.TrimSpace(strings.TrimLeft(s, "#"))
		heading = true
	case strings.HasPrefix(s, "==") && strings.HasSuffix(s, "=="):
		s = strings.TrimSpace(strings.Trim(s, "="))
		heading = true
	}
	// list items may repeat a known label ("1. IMAGE QUALITY: ...") but are
	// never foreign labels
	listItem := numberingRe.MatchString(s)
	s = numberingRe.ReplaceAllString(s, "")

	name, rest := s, ""
	if idx := strings.IndexByte(s, ':'); idx > 0 {
		name, rest = s[:idx], strings.TrimSpace(s[idx+1:])
	} else if !heading {
		return "", "", bodyLine
	}
	name = strings.TrimSpace(name)
	base := parentheticRe.ReplaceAllString(name, "")
	upper := base == strings.ToUpper(base) && hasLetter(base)
	norm := normalizeName(name)

	// inline labels must be written in capitals; headings may use any case
	if heading || upper {
		if l, ok := lookup(norm); ok {
			return l, rest, knownLabel
		}
	}
	if !listItem && norm != "" && !hasDigit(norm) && len(norm) <= 48 && (heading || upper) {
		return "", "", foreignLabel
	}
	return "", "", bodyLine
}

func lookup(name string) (Label, bool) {
	if l, ok := aliases[name]; ok {
		return l, true
	}
	for _, k := range aliasKeys {
		if strings.HasPrefix(name, k+" ") {
			return aliases[k], true
		}
	}
	return "", false
}

func normalizeName(name string) string {
	name = parentheticRe.ReplaceAllString(strings.ToUpper(name), " ")
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return ' '
	}, name)
	return strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))
}

// cleanLine normalizes list formatting drift: bullets, numbering, heading
// markers, emphasis and repeated whitespace.
func cleanLine(line string) string {
	s := stripEmphasis(strings.TrimSpace(line))
	s = strings.TrimSpace(strings.Trim(strings.TrimLeft(s, "#"), "="))
	s = numberingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

var placeholders = map[string]bool{
	"":                true,
	"-":               true,
	"none":            true,
	"n/a":             true,
	"na":              true,
	"nil":             true,
	"null":            true,
	"not applicable":  true,
	"none identified": true,
	"none found":      true,
	"no findings":     true,
	"nothing notable": true,
}

func isPlaceholder(s string) bool {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), ".!"))
	if placeholders[s] {
		return true
	}
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}
