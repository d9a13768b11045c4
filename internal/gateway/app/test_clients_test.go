package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/config"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
	"infographify/internal/tester"
	"infographify/internal/types"
)

func TestNewClientsFake(t *testing.T) {
	clients, err := NewClients(context.Background(), config.LLMConfig{
		Fake: true, Retries: 2, ScriptTimeout: time.Second, CacheSize: 4, CacheTTL: time.Minute,
	}, zerolog.Nop())
	tester.NoErr(t, err)

	res, err := clients.Script.GenerateScript(context.Background(), llmclient.ScriptRequest{
		Source: "topic", Config: types.GenerationConfig{SlideCount: 2},
	})
	tester.NoErr(t, err)
	tester.Eq(t, len(slide.Parse(res.Text)), 2)

	img, err := clients.Image.GenerateImage(context.Background(), llmclient.ImageRequest{Prompt: "p"})
	tester.NoErr(t, err)
	tester.True(t, len(img.Data) > 0, "image bytes")
}

func TestNewClientsNeedsKey(t *testing.T) {
	_, err := NewClients(context.Background(), config.LLMConfig{}, zerolog.Nop())
	tester.True(t, err != nil, "missing key must fail")
}

func TestNewArtifactStore(t *testing.T) {
	st, closer, err := NewArtifactStore(context.Background(), config.ArtifactConfig{Backend: "memory"})
	tester.NoErr(t, err)
	tester.True(t, st != nil && closer == nil, "memory store")

	_, _, err = NewArtifactStore(context.Background(), config.ArtifactConfig{Backend: "s3"})
	tester.True(t, err != nil, "s3 without endpoint must fail")

	_, _, err = NewArtifactStore(context.Background(), config.ArtifactConfig{Backend: "floppy"})
	tester.True(t, err != nil, "unknown backend")
}
