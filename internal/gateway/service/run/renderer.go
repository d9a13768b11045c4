package run

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"infographify/internal/gateway/repository/artifact"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
)

// Renderer is the batch.Generator of one run: it asks the image client for
// a slide, stores the bytes and answers with a displayable URL.
type Renderer struct {
	Images      llmclient.ImageClient
	Artifacts   artifact.Store
	RunID       string
	Model       string
	AspectRatio string
}

func (r Renderer) Generate(ctx context.Context, rec slide.Record) (string, error) {
	img, err := r.Images.GenerateImage(ctx, llmclient.ImageRequest{
		Prompt:      rec.Prompt(),
		Model:       r.Model,
		AspectRatio: r.AspectRatio,
	})
	if err != nil {
		return "", err
	}
	if len(img.Data) == 0 {
		return "", llmclient.ErrNoImageData
	}
	return artifact.ImageURL(ctx, r.Artifacts, r.RunID, slidePath(rec, img.MIMEType), artifact.Object{
		ContentType: img.MIMEType,
		Data:        img.Data,
	})
}

// slidePath names one render. Every render gets its own object so a
// regenerated slide never serves a cached copy of the previous image.
func slidePath(rec slide.Record, mime string) string {
	return fmt.Sprintf("slides/%03d-%s.%s", rec.Index, uuid.NewString()[:8], extensionFor(mime))
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
