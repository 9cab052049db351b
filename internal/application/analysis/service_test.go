package analysis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/findings"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/fallback"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/simulated"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/imaging"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testTime = time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)

// scriptedClient returns err (or text) and counts calls.
type scriptedClient struct {
	imageOut, textOut string
	imageErr, textErr error
	calls             atomic.Int32
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) GenerateFromImage(context.Context, ai.Image, string) (string, error) {
	c.calls.Add(1)
	return c.imageOut, c.imageErr
}

func (c *scriptedClient) GenerateFromText(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.textOut, c.textErr
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	img.SetGray(0, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(client ai.Client) *Service {
	return &Service{
		Client:     client,
		Normalizer: imaging.New(512, 90, 1<<20),
		Clock:      fixedClock{testTime},
	}
}

func assertProgress(t *testing.T, events []domain.ProgressEvent, st *domain.AnalysisState) {
	t.Helper()
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, i+1, e.Index, "events must be gap free")
	}
	last := events[len(events)-1]
	assert.True(t, last.Terminal())
	assert.Equal(t, int(st.Step)+1, last.Index)
	for _, e := range events[:len(events)-1] {
		assert.False(t, e.Terminal())
		assert.Equal(t, domain.Step(e.Index).String(), e.Label)
	}
	if st.Status == domain.StatusCompleted {
		assert.Equal(t, domain.LabelCompleted, last.Label)
	} else {
		assert.True(t, strings.HasPrefix(last.Label, domain.LabelFailed+": "), last.Label)
	}
}

func TestRun_UnavailableFallsBackToSimulated(t *testing.T) {
	down := &scriptedClient{
		imageErr: fmt.Errorf("no credential: %w", ai.ErrUnavailable),
		textErr:  fmt.Errorf("no credential: %w", ai.ErrUnavailable),
	}
	svc := newService(fallback.New(down, simulated.New(), nil))

	var events []domain.ProgressEvent
	st := svc.Run(context.Background(), Request{Image: pngBytes(t), ImageType: domain.ImageXRay}, domain.Collect(&events))

	require.NoError(t, st.Err)
	assert.Equal(t, domain.StatusCompleted, st.Status)
	assert.Equal(t, domain.StepCompileReport, st.Step)
	assert.EqualValues(t, 2, down.calls.Load())

	assert.NotEmpty(t, st.ID)
	assert.Equal(t, testTime, st.Timestamp)
	assert.NotNil(t, st.Image)
	assert.Equal(t, 512, st.Image.Bounds().Dx())
	assert.NotEmpty(t, st.RawVisionResponse)
	assert.NotEmpty(t, st.Diseases)
	assert.NotEmpty(t, st.RootCauses)
	assert.NotEmpty(t, st.RawTextResponse)
	assert.NotEmpty(t, st.Medications)
	assert.Len(t, st.CarePlan, 14)
	assert.NotEmpty(t, st.DoctorSummary)
	assert.NotEmpty(t, st.FinalReport)
	assert.Empty(t, st.Degraded)

	require.Len(t, events, 8)
	assertProgress(t, events, st)
}

func TestRun_PreprocessFailureMakesNoCalls(t *testing.T) {
	client := &scriptedClient{imageOut: "DISEASES: Pneumonia (85%)"}
	svc := newService(client)

	inputs := []Request{
		{Image: nil, ImageType: domain.ImageXRay},
		{Image: []byte("not an image"), ImageType: domain.ImageMRI},
		{Image: pngBytes(t), ImageType: domain.ImageType("pet")},
	}
	for _, req := range inputs {
		var events []domain.ProgressEvent
		st := svc.Run(context.Background(), req, domain.Collect(&events))

		assert.Equal(t, domain.StatusFailed, st.Status)
		assert.ErrorIs(t, st.Err, domain.ErrInvalidFormat)
		assert.Equal(t, domain.KindInvalidFormat, domain.KindOf(st.Err))
		assert.Equal(t, domain.StepPreprocess, st.Step)
		assert.Nil(t, st.Image)
		assert.Empty(t, st.FinalReport)
		assert.Equal(t, []domain.ProgressEvent{
			{Index: 1, Label: "Preprocess"},
			{Index: 2, Label: "Failed: " + st.Err.Error()},
		}, events)
	}
	assert.Zero(t, client.calls.Load())
}

func TestRun_FatalModelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"quota", ai.ErrQuotaExceeded, domain.KindAPIQuota},
		{"timeout", ai.ErrTimeout, domain.KindAPITimeout},
		{"unavailable without fallback", ai.ErrUnavailable, domain.KindAPIUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{
				imageOut: "DISEASES: Pneumonia (85%)\nROOT CAUSES:\n- infection\n",
				textErr:  fmt.Errorf("upstream: %w", tt.err),
			}
			var events []domain.ProgressEvent
			st := newService(client).Run(context.Background(),
				Request{Image: pngBytes(t), ImageType: domain.ImageCTScan}, domain.Collect(&events))

			assert.Equal(t, domain.StatusFailed, st.Status)
			assert.Equal(t, tt.kind, domain.KindOf(st.Err))
			assert.Equal(t, domain.StepGenerateTreatment, st.Step)
			assert.Len(t, st.Diseases, 1)
			assert.Empty(t, st.RawTextResponse)
			assert.Empty(t, st.Medications)
			assert.Empty(t, st.FinalReport)
			assert.EqualValues(t, 2, client.calls.Load())
			require.Len(t, events, 6)
			assertProgress(t, events, st)
		})
	}
}

func TestRun_DegradedSectionsDoNotFail(t *testing.T) {
	client := &scriptedClient{
		imageOut: "The image is blurry, no structured findings.",
		textOut:  "MEDICATIONS:\n- Ibuprofen - 400 mg\n",
	}
	st := newService(client).Run(context.Background(),
		Request{Image: pngBytes(t), ImageType: domain.ImageUltrasound}, nil)

	require.NoError(t, st.Err)
	assert.Equal(t, domain.StatusCompleted, st.Status)
	assert.Empty(t, st.Diseases)
	assert.Len(t, st.Medications, 1)
	assert.Nil(t, st.CarePlan)
	assert.Equal(t, []findings.Label{
		findings.LabelDiseases,
		findings.LabelRootCauses,
		findings.LabelCarePlan,
		findings.LabelDoctorSummary,
	}, st.Degraded)
	assert.Contains(t, st.FinalReport, "No care plan available.")
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	client := &scriptedClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []domain.ProgressEvent
	st := newService(client).Run(ctx, Request{Image: pngBytes(t), ImageType: domain.ImageXRay}, domain.Collect(&events))

	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, domain.KindCanceled, domain.KindOf(st.Err))
	assert.Zero(t, client.calls.Load())
	require.Len(t, events, 1)
	assertProgress(t, events, st)
}

// cancelingClient cancels the run while the vision call is in flight.
type cancelingClient struct {
	scriptedClient
	cancel context.CancelFunc
	sawErr error
}

func (c *cancelingClient) GenerateFromImage(ctx context.Context, img ai.Image, p string) (string, error) {
	c.cancel()
	c.sawErr = ctx.Err()
	return c.scriptedClient.GenerateFromImage(ctx, img, p)
}

func TestRun_CancelStopsBeforeNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &cancelingClient{
		scriptedClient: scriptedClient{imageOut: "DISEASES: Pneumonia (85%)"},
		cancel:         cancel,
	}

	st := newService(client).Run(ctx, Request{Image: pngBytes(t), ImageType: domain.ImageXRay}, nil)

	assert.NoError(t, client.sawErr, "in-flight call keeps its own deadline")
	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.ErrorIs(t, st.Err, context.Canceled)
	assert.Equal(t, domain.StepVisionAnalyze, st.Step)
	assert.NotEmpty(t, st.RawVisionResponse)
	assert.Empty(t, st.Diseases)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	svc := newService(simulated.New())
	img := pngBytes(t)

	var wg sync.WaitGroup
	results := make([]*domain.AnalysisState, len(domain.ImageTypes)*4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it := domain.ImageTypes[i%len(domain.ImageTypes)]
			results[i] = svc.Run(context.Background(), Request{Image: img, ImageType: it}, nil)
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for i, st := range results {
		it := domain.ImageTypes[i%len(domain.ImageTypes)]
		require.NoError(t, st.Err)
		assert.Equal(t, it, st.ImageType)
		assert.Contains(t, st.RawVisionResponse, it.Label())
		assert.False(t, ids[st.ID], "duplicate id")
		ids[st.ID] = true
	}
}
