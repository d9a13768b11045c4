package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/config"
	"infographify/internal/llm"
	llmclient "infographify/internal/llm/client"
)

// Clients bundles the decorated model clients shared by the services.
type Clients struct {
	Script llmclient.ScriptClient
	Image  llmclient.ImageClient
}

// NewClients builds the Gemini client (or the fake one) and applies the
// middleware chain: logging outermost, then cache, retry and rate limit.
func NewClients(ctx context.Context, cfg config.LLMConfig, log zerolog.Logger) (Clients, error) {
	var script llmclient.ScriptClient
	var image llmclient.ImageClient
	if cfg.Fake {
		fake := llm.NewFakeClient()
		script, image = fake, fake
	} else {
		if cfg.APIKey == "" {
			return Clients{}, fmt.Errorf("GEMINI_API_KEY is not set (use LLM_FAKE=1 for offline runs)")
		}
		g, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.TextModel, cfg.ImageModel)
		if err != nil {
			return Clients{}, fmt.Errorf("gemini client: %w", err)
		}
		script, image = g, g
	}

	llmLog := log.With().Str("component", "llm").Logger()
	return Clients{
		Script: llm.WrapScript(script,
			llm.ScriptLogging(llmLog),
			llm.Timeout(cfg.ScriptTimeout),
			llm.RetryScript(cfg.Retries, time.Second),
		),
		Image: llm.WrapImage(image,
			llm.ImageLogging(llmLog),
			llm.Cache(cfg.CacheSize, cfg.CacheTTL),
			llm.RetryImage(cfg.Retries, time.Second),
			llm.RateLimit(cfg.RPS, cfg.Burst),
		),
	}, nil
}
