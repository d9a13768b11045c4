package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	llmclient "infographify/internal/llm/client"
)

// Cache memoizes rendered images by model, aspect ratio and prompt so that
// re-running an unchanged script does not pay for the same image twice.
// Failures are never cached. size <= 0 disables the cache. Requests whose
// context is marked llmclient.WithFresh skip the lookup; their result
// replaces the cached entry.
func Cache(size int, ttl time.Duration) ImageMiddleware {
	return func(next llmclient.ImageClient) llmclient.ImageClient {
		if size <= 0 {
			return next
		}
		return &cached{next: next, lru: expirable.NewLRU[string, llmclient.Image](size, nil, ttl)}
	}
}

type cached struct {
	next llmclient.ImageClient
	lru  *expirable.LRU[string, llmclient.Image]
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	key := imageKey(req)
	if !llmclient.IsFresh(ctx) {
		if img, ok := c.lru.Get(key); ok {
			return img, nil
		}
	}
	img, err := c.next.GenerateImage(ctx, req)
	if err != nil {
		return img, err
	}
	c.lru.Add(key, img)
	return img, nil
}

func imageKey(req llmclient.ImageRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Model))
	h.Write([]byte{0})
	h.Write([]byte(req.AspectRatio))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}
