package instrument

import (
	"context"
	"time"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// Client records call count and latency of inner, labelled by outcome.
type Client struct {
	inner ai.Client
}

func New(inner ai.Client) *Client { return &Client{inner: inner} }

func (c *Client) Name() string { return c.inner.Name() }

func (c *Client) GenerateFromImage(ctx context.Context, img ai.Image, prompt string) (string, error) {
	start := time.Now()
	out, err := c.inner.GenerateFromImage(ctx, img, prompt)
	metrics.RecordModelCall(c.inner.Name(), "image", outcome(err), time.Since(start))
	return out, err
}

func (c *Client) GenerateFromText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := c.inner.GenerateFromText(ctx, prompt)
	metrics.RecordModelCall(c.inner.Name(), "text", outcome(err), time.Since(start))
	return out, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(analysis.KindOf(err))
}
