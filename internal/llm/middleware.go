package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	llmclient "infographify/internal/llm/client"
)

// -------- Rate Limiting --------

// RateLimit limits image requests using rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) ImageMiddleware {
	return func(next llmclient.ImageClient) llmclient.ImageClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.ImageClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return llmclient.Image{}, err
	}
	return c.next.GenerateImage(ctx, req)
}

// -------- Timeout --------

// Timeout bounds a script request. A request that runs past d fails with
// ErrScriptTimeout; cancellation by the caller is passed through unchanged.
func Timeout(d time.Duration) ScriptMiddleware {
	return func(next llmclient.ScriptClient) llmclient.ScriptClient {
		if d <= 0 {
			return next
		}
		return &timeBound{next: next, d: d}
	}
}

type timeBound struct {
	next llmclient.ScriptClient
	d    time.Duration
}

func (c *timeBound) Name() string { return c.next.Name() }
func (c *timeBound) GenerateScript(ctx context.Context, req llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	tctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	res, err := c.next.GenerateScript(tctx, req)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return llmclient.ScriptResult{}, llmclient.NewPermanentError(fmt.Errorf("%w after %s", llmclient.ErrScriptTimeout, c.d))
	}
	return res, err
}

// -------- Logging --------

// ImageLogging logs prompt size, latency and errors of every image request.
func ImageLogging(log zerolog.Logger) ImageMiddleware {
	return func(next llmclient.ImageClient) llmclient.ImageClient {
		return &imageLogging{next: next, log: log}
	}
}

type imageLogging struct {
	next llmclient.ImageClient
	log  zerolog.Logger
}

func (l *imageLogging) Name() string { return l.next.Name() }
func (l *imageLogging) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	start := time.Now()
	img, err := l.next.GenerateImage(ctx, req)
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev.Str("client", l.next.Name()).
		Int("prompt_bytes", len(req.Prompt)).
		Int("image_bytes", len(img.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("image request")
	return img, err
}

// ScriptLogging logs source size, latency and errors of every script request.
func ScriptLogging(log zerolog.Logger) ScriptMiddleware {
	return func(next llmclient.ScriptClient) llmclient.ScriptClient {
		return &scriptLogging{next: next, log: log}
	}
}

type scriptLogging struct {
	next llmclient.ScriptClient
	log  zerolog.Logger
}

func (l *scriptLogging) Name() string { return l.next.Name() }
func (l *scriptLogging) GenerateScript(ctx context.Context, req llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	start := time.Now()
	res, err := l.next.GenerateScript(ctx, req)
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev.Str("client", l.next.Name()).
		Int("source_bytes", len(req.Source)).
		Int("script_bytes", len(res.Text)).
		Int("sources", len(res.Sources)).
		Dur("elapsed", time.Since(start)).
		Msg("script request")
	return res, err
}
