package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
)

func TestParseImageType(t *testing.T) {
	cases := map[string]ImageType{
		"X-Ray":      ImageXRay,
		"xray":       ImageXRay,
		"MRI":        ImageMRI,
		"CT Scan":    ImageCTScan,
		"ct-scan":    ImageCTScan,
		"EKG":        ImageECG,
		"Ultrasound": ImageUltrasound,
	}
	for in, want := range cases {
		got, err := ParseImageType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.Valid())
	}

	_, err := ParseImageType("pet")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.False(t, ImageType("pet").Valid())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindInvalidFormat, KindOf(fmt.Errorf("decode: %w", ErrInvalidFormat)))
	assert.Equal(t, KindAPIQuota, KindOf(fmt.Errorf("gemini: %w", ai.ErrQuotaExceeded)))
	assert.Equal(t, KindAPITimeout, KindOf(ai.ErrTimeout))
	assert.Equal(t, KindAPIUnavailable, KindOf(ai.ErrUnavailable))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestPrimaryDiagnosis(t *testing.T) {
	s := &AnalysisState{Diseases: []findings.Disease{
		{Name: "Bronchitis", Confidence: findings.Unknown},
		{Name: "Pneumonia", Confidence: findings.Score(0.85)},
		{Name: "Effusion", Confidence: findings.Score(0.2)},
	}}
	assert.Equal(t, "Pneumonia", s.PrimaryDiagnosis())
	assert.Empty(t, (&AnalysisState{}).PrimaryDiagnosis())
}

func TestAnalysisStateJSON(t *testing.T) {
	s := &AnalysisState{
		ID:        "abc",
		ImageType: ImageMRI,
		Status:    StatusFailed,
		Diseases:  []findings.Disease{{Name: "Glioma", Confidence: findings.Unknown}},
		Err:       fmt.Errorf("vision: %w", ai.ErrTimeout),
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "abc", out["id"])
	assert.Equal(t, "mri", out["image_type"])
	assert.Equal(t, "ApiTimeout", out["error_kind"])
	assert.Contains(t, out["error"], "timed out")
	assert.Nil(t, out["diseases"].([]any)[0].(map[string]any)["confidence"])
}

func TestProgressEventTerminal(t *testing.T) {
	assert.True(t, ProgressEvent{Index: 8, Label: LabelCompleted}.Terminal())
	assert.True(t, ProgressEvent{Index: 2, Label: "Failed: boom"}.Terminal())
	assert.False(t, ProgressEvent{Index: 1, Label: StepPreprocess.String()}.Terminal())
}
