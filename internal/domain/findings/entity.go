package findings

import (
	"encoding/json"
	"math"
	"strconv"
)

// Confidence score in [0,1]. Known is false when the model gave no score.
type Confidence struct {
	Value float64
	Known bool
}

// Unknown marker untuk skor yang tidak disebutkan
var Unknown = Confidence{}

// Score builds a known confidence, rounded to four decimals so that
// formatting and parsing agree.
func Score(v float64) Confidence {
	return Confidence{Value: math.Round(v*10000) / 10000, Known: true}
}

// Percent renders the score as "85%" or "unknown".
func (c Confidence) Percent() string {
	if !c.Known {
		return "unknown"
	}
	return strconv.FormatFloat(math.Round(c.Value*10000)/100, 'f', -1, 64) + "%"
}

func (c Confidence) String() string { return c.Percent() }

func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *Confidence) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Score(v)
	return nil
}

// Disease value object
type Disease struct {
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
	Evidence   string     `json:"evidence,omitempty"`
}

// Medication value object
type Medication struct {
	Name              string `json:"name"`
	Dosage            string `json:"dosage,omitempty"`
	Duration          string `json:"duration,omitempty"`
	Type              string `json:"type,omitempty"`
	Contraindications string `json:"contraindications,omitempty"`
}

// CarePlanDays is the fixed length of a care plan.
const CarePlanDays = 14

// CarePlanDay satu hari dalam care plan
type CarePlanDay struct {
	Day          int    `json:"day"`
	Activities   string `json:"activities,omitempty"`
	Monitoring   string `json:"monitoring,omitempty"`
	WarningSigns string `json:"warning_signs,omitempty"`
}

// Empty reports whether the day carries no text at all.
func (d CarePlanDay) Empty() bool {
	return d.Activities == "" && d.Monitoring == "" && d.WarningSigns == ""
}
