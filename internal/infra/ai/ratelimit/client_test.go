package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/simulated"
)

func TestDisabledReturnsInner(t *testing.T) {
	inner := simulated.New()
	assert.Same(t, inner, New(inner, 0, 1, time.Second))
}

func TestExhaustedBucketIsQuota(t *testing.T) {
	c := New(simulated.New(), 1, 1, 10*time.Millisecond)
	ctx := context.Background()

	_, err := c.GenerateFromText(ctx, "X-Ray treatment")
	require.NoError(t, err)

	_, err = c.GenerateFromText(ctx, "X-Ray treatment")
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestShortWaitIsServed(t *testing.T) {
	// 600/min leaves 100ms between calls
	c := New(simulated.New(), 600, 1, time.Second)
	ctx := context.Background()

	_, err := c.GenerateFromImage(ctx, ai.Image{}, "X-Ray")
	require.NoError(t, err)
	start := time.Now()
	_, err = c.GenerateFromImage(ctx, ai.Image{}, "X-Ray")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitHonoursContext(t *testing.T) {
	c := New(simulated.New(), 6, 1, time.Minute)
	_, err := c.GenerateFromText(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GenerateFromText(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
