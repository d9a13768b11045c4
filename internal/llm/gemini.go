package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	llmclient "infographify/internal/llm/client"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// GeminiClient is a thin wrapper around the official genai client. It
// serves both script drafting and per-slide image rendering.
type GeminiClient struct {
	cli        *genai.Client
	textModel  string
	imageModel string
}

func NewGeminiClient(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		cli:        cli,
		textModel:  firstNonEmpty(strings.TrimSpace(textModel), DefaultTextModel),
		imageModel: firstNonEmpty(strings.TrimSpace(imageModel), DefaultImageModel),
	}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.textModel + "+" + g.imageModel }

// GenerateScript drafts a slide script with Google Search grounding so that
// URLs in the source can be followed.
func (g *GeminiClient) GenerateScript(ctx context.Context, req llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	if strings.TrimSpace(req.Source) == "" {
		return llmclient.ScriptResult{}, llmclient.NewPermanentError(llmclient.ErrEmptySource)
	}
	cfg := req.Config.WithDefaults()
	model := firstNonEmpty(cfg.Model, g.textModel)

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: ScriptPrompt(cfg, req.Source)}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: ScriptSystemInstruction(cfg)}}},
			Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return llmclient.ScriptResult{}, classifyError(err)
	}
	if err := blockedBySafety(resp); err != nil {
		return llmclient.ScriptResult{}, err
	}
	return llmclient.ScriptResult{
		Text:    responseText(resp),
		Sources: groundingSources(resp),
	}, nil
}

// GenerateImage renders one slide. The first inline image part wins.
func (g *GeminiClient) GenerateImage(ctx context.Context, req llmclient.ImageRequest) (llmclient.Image, error) {
	model := firstNonEmpty(strings.TrimSpace(req.Model), g.imageModel)
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: ImagePrompt(req.Prompt, req.AspectRatio)}}}},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return llmclient.Image{}, classifyError(err)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return llmclient.Image{
				Data:     part.InlineData.Data,
				MIMEType: firstNonEmpty(part.InlineData.MIMEType, "image/png"),
			}, nil
		}
	}
	if err := blockedBySafety(resp); err != nil {
		return llmclient.Image{}, err
	}
	return llmclient.Image{}, llmclient.ErrNoImageData
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func groundingSources(resp *genai.GenerateContentResponse) []llmclient.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []llmclient.Source
	seen := map[string]bool{}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, llmclient.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}

var safetyFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonSPII:              true,
	"IMAGE_SAFETY":                      true,
}

func blockedBySafety(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return llmclient.NewPermanentError(fmt.Errorf("%w: prompt %s", llmclient.ErrSafetyBlocked, fb.BlockReason))
	}
	for _, cand := range resp.Candidates {
		if cand != nil && safetyFinishReasons[cand.FinishReason] {
			return llmclient.NewPermanentError(fmt.Errorf("%w: %s", llmclient.ErrSafetyBlocked, cand.FinishReason))
		}
	}
	return nil
}

// classifyError maps provider errors onto the llmclient sentinels.
// Credential problems become ErrReauthRequired; other 4xx are permanent.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isCredentialError(err) {
		return llmclient.NewPermanentError(fmt.Errorf("%w: %v", llmclient.ErrReauthRequired, err))
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
		return llmclient.NewPermanentError(err)
	}
	return err
}

func isCredentialError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "requested entity was not found") ||
		strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "api_key_invalid")
}
