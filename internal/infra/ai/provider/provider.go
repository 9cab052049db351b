package provider

import (
	"log/slog"

	"github.com/bryanwahyu/medimage-analyzer/internal/config"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/fallback"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/gemini"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/instrument"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/ratelimit"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/simulated"
)

// New picks the model client once at construction. A real provider with no
// credential becomes the simulated client. The chain is
// instrument -> fallback -> ratelimit -> real client.
func New(cfg config.Model, logger *slog.Logger) ai.Client {
	if logger == nil {
		logger = slog.Default()
	}

	var real ai.Client
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey != "" {
			real = gemini.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Name, cfg.Timeout)
		}
	case "openai":
		if cfg.APIKey != "" {
			real = openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Name, cfg.Timeout)
		}
	}

	if real == nil {
		if cfg.Provider != simulated.Name {
			logger.Warn("no model credential configured, using simulated responses", "provider", cfg.Provider)
		}
		return instrument.New(simulated.New())
	}

	client := ratelimit.New(real, cfg.RatePerMinute, cfg.Burst, cfg.MaxWait)
	if cfg.Fallback {
		client = fallback.New(client, simulated.New(), logger)
	}
	logger.Info("model client ready", "client", client.Name(), "fallback", cfg.Fallback)
	return instrument.New(client)
}
