package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"

	llmclient "infographify/internal/llm/client"
)

// onePixelPNG is a valid 1x1 transparent PNG.
var onePixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// FakeClient returns deterministic scripts and images for offline runs and
// tests. Prompts containing FailMarker fail with ErrSafetyBlocked.
type FakeClient struct {
	FailMarker string

	imageCalls  atomic.Int64
	scriptCalls atomic.Int64
}

func NewFakeClient() *FakeClient { return &FakeClient{FailMarker: "[[blocked]]"} }

func (f *FakeClient) Name() string { return "FakeLLM" }

func (f *FakeClient) ImageCalls() int64  { return f.imageCalls.Load() }
func (f *FakeClient) ScriptCalls() int64 { return f.scriptCalls.Load() }

// GenerateScript emits SlideCount numbered slides in the header format the
// slide parser recognizes.
func (f *FakeClient) GenerateScript(ctx context.Context, req llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	f.scriptCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return llmclient.ScriptResult{}, err
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return llmclient.ScriptResult{}, llmclient.NewPermanentError(llmclient.ErrEmptySource)
	}
	cfg := req.Config.WithDefaults()
	topic := source
	if i := strings.IndexByte(topic, '\n'); i >= 0 {
		topic = topic[:i]
	}
	if len(topic) > 40 {
		topic = topic[:40]
	}

	var b strings.Builder
	for i := 1; i <= cfg.SlideCount; i++ {
		fmt.Fprintf(&b, "#### Infographic %d/%d: %s part %d\n", i, cfg.SlideCount, topic, i)
		fmt.Fprintf(&b, "- Layout Description: %s layout, %s.\n", cfg.DetailLevel, cfg.AspectRatio)
		fmt.Fprintf(&b, "- Body Sections: key point %d.\n\n", i)
	}
	return llmclient.ScriptResult{Text: b.String()}, nil
}

func (f *FakeClient) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	f.imageCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return llmclient.Image{}, err
	}
	if f.FailMarker != "" && strings.Contains(req.Prompt, f.FailMarker) {
		return llmclient.Image{}, llmclient.NewPermanentError(llmclient.ErrSafetyBlocked)
	}
	data := make([]byte, len(onePixelPNG))
	copy(data, onePixelPNG)
	return llmclient.Image{Data: data, MIMEType: "image/png"}, nil
}
