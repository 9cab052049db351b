package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
)

type stubClient struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) GenerateFromImage(context.Context, ai.Image, string) (string, error) {
	s.calls++
	return s.out, s.err
}

func (s *stubClient) GenerateFromText(context.Context, string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestFallbackOnUnavailable(t *testing.T) {
	primary := &stubClient{name: "gemini", err: fmt.Errorf("gemini: %w", ai.ErrUnavailable)}
	backup := &stubClient{name: "simulated", out: "simulated answer"}
	c := New(primary, backup, nil)

	out, err := c.GenerateFromImage(context.Background(), ai.Image{}, "p")
	require.NoError(t, err)
	assert.Equal(t, "simulated answer", out)

	out, err = c.GenerateFromText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "simulated answer", out)

	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, 2, backup.calls)
	assert.Equal(t, "gemini", c.Name())
}

func TestNoFallbackOnOtherErrors(t *testing.T) {
	for _, cause := range []error{ai.ErrTimeout, ai.ErrQuotaExceeded, errors.New("bad request")} {
		primary := &stubClient{name: "openai", err: cause}
		backup := &stubClient{name: "simulated", out: "x"}
		c := New(primary, backup, nil)

		_, err := c.GenerateFromText(context.Background(), "p")
		assert.ErrorIs(t, err, cause)
		assert.Zero(t, backup.calls)
	}
}

func TestPrimarySuccessPassesThrough(t *testing.T) {
	primary := &stubClient{name: "openai", out: "real"}
	backup := &stubClient{name: "simulated", out: "x"}
	out, err := New(primary, backup, nil).GenerateFromText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "real", out)
	assert.Zero(t, backup.calls)
}
