package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// Client waits on a token bucket before every call. A call that would wait
// longer than MaxWait fails with ai.ErrQuotaExceeded instead of queueing.
type Client struct {
	inner   ai.Client
	limiter *rate.Limiter
	maxWait time.Duration
}

// New wraps inner with a limiter of perMinute calls and the given burst.
// perMinute <= 0 returns inner unchanged.
func New(inner ai.Client, perMinute float64, burst int, maxWait time.Duration) ai.Client {
	if perMinute <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
		maxWait: maxWait,
	}
}

func (c *Client) Name() string { return c.inner.Name() }

func (c *Client) GenerateFromImage(ctx context.Context, img ai.Image, prompt string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.inner.GenerateFromImage(ctx, img, prompt)
}

func (c *Client) GenerateFromText(ctx context.Context, prompt string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.inner.GenerateFromText(ctx, prompt)
}

func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if delay > c.maxWait {
		r.Cancel()
		return fmt.Errorf("%s: local limit reached, next slot in %s: %w",
			c.inner.Name(), delay.Round(time.Millisecond), ai.ErrQuotaExceeded)
	}

	start := time.Now()
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		metrics.RecordRateLimitWait("model", time.Since(start))
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
