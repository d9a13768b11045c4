package llm

import (
	"context"
	"time"

	llmclient "infographify/internal/llm/client"
)

// RetryImage retries GenerateImage up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and cancellation stop immediately.
func RetryImage(maxAttempts int, baseDelay time.Duration) ImageMiddleware {
	maxAttempts, baseDelay = retryBounds(maxAttempts, baseDelay)
	return func(next llmclient.ImageClient) llmclient.ImageClient {
		return &retryingImage{next: next, max: maxAttempts, base: baseDelay}
	}
}

// RetryScript is RetryImage for script requests.
func RetryScript(maxAttempts int, baseDelay time.Duration) ScriptMiddleware {
	maxAttempts, baseDelay = retryBounds(maxAttempts, baseDelay)
	return func(next llmclient.ScriptClient) llmclient.ScriptClient {
		return &retryingScript{next: next, max: maxAttempts, base: baseDelay}
	}
}

func retryBounds(maxAttempts int, baseDelay time.Duration) (int, time.Duration) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return maxAttempts, baseDelay
}

type retryingImage struct {
	next llmclient.ImageClient
	max  int
	base time.Duration
}

func (r *retryingImage) Name() string { return r.next.Name() }
func (r *retryingImage) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	var last error
	for i := 0; i < r.max; i++ {
		img, err := r.next.GenerateImage(ctx, req)
		if err == nil {
			return img, nil
		}
		if llmclient.IsPermanent(err) {
			return llmclient.Image{}, err
		}
		last = err
		if i+1 < r.max {
			if err := backoff(ctx, r.base, i); err != nil {
				return llmclient.Image{}, err
			}
		}
	}
	return llmclient.Image{}, last
}

type retryingScript struct {
	next llmclient.ScriptClient
	max  int
	base time.Duration
}

func (r *retryingScript) Name() string { return r.next.Name() }
func (r *retryingScript) GenerateScript(ctx context.Context, req llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	var last error
	for i := 0; i < r.max; i++ {
		res, err := r.next.GenerateScript(ctx, req)
		if err == nil {
			return res, nil
		}
		if llmclient.IsPermanent(err) {
			return llmclient.ScriptResult{}, err
		}
		last = err
		if i+1 < r.max {
			if err := backoff(ctx, r.base, i); err != nil {
				return llmclient.ScriptResult{}, err
			}
		}
	}
	return llmclient.ScriptResult{}, last
}

// backoff sleeps base*2^attempt or until ctx is done.
func backoff(ctx context.Context, base time.Duration, attempt int) error {
	t := time.NewTimer(base * time.Duration(1<<attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
