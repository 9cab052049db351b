package fallback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// Client answers from Fallback whenever Primary reports ai.ErrUnavailable.
// Timeouts and quota errors are returned as they are.
type Client struct {
	Primary  ai.Client
	Fallback ai.Client
	Logger   *slog.Logger
}

func New(primary, fallback ai.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Primary: primary, Fallback: fallback, Logger: logger}
}

func (c *Client) Name() string { return c.Primary.Name() }

func (c *Client) GenerateFromImage(ctx context.Context, img ai.Image, prompt string) (string, error) {
	out, err := c.Primary.GenerateFromImage(ctx, img, prompt)
	if !errors.Is(err, ai.ErrUnavailable) {
		return out, err
	}
	c.substitute("image", err)
	return c.Fallback.GenerateFromImage(ctx, img, prompt)
}

func (c *Client) GenerateFromText(ctx context.Context, prompt string) (string, error) {
	out, err := c.Primary.GenerateFromText(ctx, prompt)
	if !errors.Is(err, ai.ErrUnavailable) {
		return out, err
	}
	c.substitute("text", err)
	return c.Fallback.GenerateFromText(ctx, prompt)
}

func (c *Client) substitute(call string, cause error) {
	metrics.RecordFallback(call)
	c.Logger.Warn("model unavailable, using fallback",
		"client", c.Primary.Name(),
		"fallback", c.Fallback.Name(),
		"call", call,
		"error", cause,
	)
}
