package findings

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const scoreWords = `(?:confidence|probability|likelihood|certainty)`

var (
	percentRe  = regexp.MustCompile(`(?i)(?:` + scoreWords + `\s*(?:of|[:=])?\s*)?(\d{1,3}(?:\.\d+)?)\s*(?:%|/\s*100|\s+percent)(?:\s*` + scoreWords + `)?`)
	fractionRe = regexp.MustCompile(`(?i)(?:` + scoreWords + `\s*(?:of|[:=])?\s*)?(0?\.\d+|1\.0+)\b(?:\s*` + scoreWords + `)?`)
	evidenceRe = regexp.MustCompile(`(?i)^(?:supporting\s+)?(?:evidence|findings)\s*:\s*`)
)

// separators between a disease name and its evidence text
var evidenceSeps = []string{" - ", " – ", " — ", ": ", "; "}

const sepChars = " \t,;:|-–—"

// ParseConfidence pulls the first confidence token out of s. It returns the
// text before and after the token with surrounding brackets and separators
// trimmed. A bare fraction only counts when bracketed, introduced by a
// score word or at the end of s. Tokens outside [0,1] are consumed but
// reported as Unknown.
func ParseConfidence(s string) (before string, c Confidence, after string, ok bool) {
	if before, c, after, ok = matchScore(s, percentRe, true, false); ok {
		return before, c, after, true
	}
	return matchScore(s, fractionRe, false, true)
}

func matchScore(s string, re *regexp.Regexp, percent, needContext bool) (string, Confidence, string, bool) {
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(s[:start])
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
				continue
			}
		}
		before, after := s[:start], s[end:]
		bb := strings.TrimRight(before, " \t")
		aa := strings.TrimLeft(after, " \t")
		bracketed := false
		if strings.HasSuffix(bb, "(") && strings.HasPrefix(aa, ")") ||
			strings.HasSuffix(bb, "[") && strings.HasPrefix(aa, "]") {
			bb, aa = bb[:len(bb)-1], aa[1:]
			bracketed = true
		}
		if !bracketed && aa != "" && !strings.ContainsRune(sepChars, firstRune(aa)) {
			continue
		}
		if needContext && !bracketed && aa != "" && !hasLetter(s[start:end]) {
			continue
		}
		v, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		if percent {
			v /= 100
		}
		c := Unknown
		if v >= 0 && v <= 1 {
			c = Score(v)
		}
		return strings.Trim(bb, sepChars), c, strings.Trim(aa, sepChars), true
	}
	return "", Unknown, "", false
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// ExtractDiseases returns the disease list of the DISEASES section, one
// entry per line. "Evidence:" lines extend the previous entry.
func ExtractDiseases(raw string) []Disease {
	return diseasesFrom(Parse(raw))
}

func diseasesFrom(doc Document) []Disease {
	var out []Disease
	for _, line := range doc.Lines(LabelDiseases) {
		s := cleanLine(line)
		if isPlaceholder(s) {
			continue
		}
		if loc := evidenceRe.FindStringIndex(s); loc != nil {
			if len(out) > 0 {
				out[len(out)-1].Evidence = joinText(out[len(out)-1].Evidence, s[loc[1]:])
			}
			continue
		}
		d, ok := parseDisease(s)
		if ok {
			out = append(out, d)
		}
	}
	return out
}

func parseDisease(s string) (Disease, bool) {
	name, c, evidence, ok := ParseConfidence(s)
	if ok && name == "" {
		name, evidence = splitEvidence(evidence)
	}
	if !ok {
		name, evidence = splitEvidence(s)
		c = Unknown
	}
	name = strings.Trim(name, sepChars)
	if isPlaceholder(name) {
		return Disease{}, false
	}
	return Disease{Name: name, Confidence: c, Evidence: strings.TrimSpace(evidence)}, true
}

func splitEvidence(s string) (string, string) {
	cut := -1
	width := 0
	for _, sep := range evidenceSeps {
		if i := strings.Index(s, sep); i >= 0 && (cut < 0 || i < cut) {
			cut, width = i, len(sep)
		}
	}
	if cut < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:cut]), strings.TrimSpace(s[cut+width:])
}

// FormatDiseases renders diseases in the form ExtractDiseases reads back.
// Evidence goes on its own line so a score-like token in it is never read
// as the confidence.
func FormatDiseases(ds []Disease) string {
	var b strings.Builder
	b.WriteString(string(LabelDiseases) + ":\n")
	for _, d := range ds {
		b.WriteString("- " + d.Name)
		if d.Confidence.Known {
			b.WriteString(" (" + d.Confidence.Percent() + ")")
		}
		b.WriteString("\n")
		if d.Evidence != "" {
			b.WriteString("  Evidence: " + d.Evidence + "\n")
		}
	}
	return b.String()
}

// ExtractRootCauses returns one entry per non-empty line of ROOT CAUSES.
// Sub-headings ending in a colon are skipped.
func ExtractRootCauses(raw string) []string {
	return rootCausesFrom(Parse(raw))
}

func rootCausesFrom(doc Document) []string {
	var out []string
	for _, line := range doc.Lines(LabelRootCauses) {
		s := cleanLine(line)
		if isPlaceholder(s) || strings.HasSuffix(s, ":") {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FormatRootCauses renders causes in the form ExtractRootCauses reads back.
func FormatRootCauses(causes []string) string {
	var b strings.Builder
	b.WriteString(string(LabelRootCauses) + ":\n")
	for _, c := range causes {
		b.WriteString("- " + c + "\n")
	}
	return b.String()
}

func joinText(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "; " + b
}
