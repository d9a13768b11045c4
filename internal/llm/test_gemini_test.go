package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	genai "google.golang.org/genai"

	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
	"infographify/internal/tester"
	"infographify/internal/types"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		reauth    bool
		permanent bool
	}{
		{"unauthorized", genai.APIError{Code: 401, Message: "bad"}, true, true},
		{"forbidden", genai.APIError{Code: 403, Message: "denied"}, true, true},
		{"entity not found", errors.New("Requested entity was not found."), true, true},
		{"invalid key", fmt.Errorf("wrapped: %w", errors.New("API key not valid. Please pass a valid API key.")), true, true},
		{"bad request", genai.APIError{Code: 400, Message: "bad prompt"}, false, true},
		{"rate limited", genai.APIError{Code: 429, Message: "slow down"}, false, false},
		{"server", genai.APIError{Code: 503, Message: "overloaded"}, false, false},
		{"cancelled", context.Canceled, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyError(tc.err)
			tester.Eq(t, errors.Is(got, llmclient.ErrReauthRequired), tc.reauth)
			tester.Eq(t, llmclient.IsPermanent(got), tc.permanent)
		})
	}
	tester.True(t, classifyError(nil) == nil, "nil stays nil")
}

func TestBlockedBySafety(t *testing.T) {
	tester.NoErr(t, blockedBySafety(nil))
	tester.NoErr(t, blockedBySafety(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
	}))

	err := blockedBySafety(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	tester.ErrIs(t, err, llmclient.ErrSafetyBlocked)
	tester.True(t, llmclient.IsPermanent(err), "safety blocks are permanent")

	err = blockedBySafety(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: "IMAGE_SAFETY"}},
	})
	tester.ErrIs(t, err, llmclient.ErrSafetyBlocked)
}

func TestResponseTextAndSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: "# Slide 1/1: A\n"},
			{Text: "body"},
		}},
		GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{Title: "Go", URI: "https://go.dev"}},
			{Web: &genai.GroundingChunkWeb{Title: "Go again", URI: "https://go.dev"}},
			{Web: nil},
		}},
	}}}
	tester.Eq(t, responseText(resp), "# Slide 1/1: A\nbody")
	tester.Eq(t, groundingSources(resp), []llmclient.Source{{Title: "Go", URI: "https://go.dev"}})
	tester.Eq(t, responseText(&genai.GenerateContentResponse{}), "")
}

func TestScriptInstructionMentionsFormatAndCount(t *testing.T) {
	cfg := types.GenerationConfig{SlideCount: 7, DetailLevel: types.DetailDetailed, Language: types.LanguageItalian}
	sys := ScriptSystemInstruction(cfg)
	tester.True(t, strings.Contains(sys, "#### Infographic X/Y: [Title]"), "header format")
	tester.True(t, strings.Contains(sys, "Generate exactly 7 slides"), "slide count")
	tester.True(t, strings.Contains(sys, defaultStyle), "default style")
	tester.True(t, strings.Contains(sys, "Italian"), "language")

	user := ScriptPrompt(cfg, "  https://example.com/report  ")
	tester.True(t, strings.HasSuffix(user, "https://example.com/report"), "source is trimmed")

	img := ImagePrompt("Title: A\nContext: B", "")
	tester.True(t, strings.Contains(img, "Aspect Ratio: 16:9"), "default aspect")
	tester.True(t, strings.HasSuffix(img, "Title: A\nContext: B"), "slide prompt last")
}

func TestFakeScriptRoundTripsThroughParser(t *testing.T) {
	fake := NewFakeClient()
	res, err := fake.GenerateScript(context.Background(), llmclient.ScriptRequest{
		Source: "Quarterly results\nmore lines",
		Config: types.GenerationConfig{SlideCount: 4},
	})
	tester.NoErr(t, err)
	recs := slide.Parse(res.Text)
	tester.Eq(t, len(recs), 4)
	tester.Eq(t, recs[3].Index, 4)
	tester.Eq(t, recs[3].Total, 4)
	tester.Eq(t, recs[0].Title, "Quarterly results part 1")

	_, err = fake.GenerateScript(context.Background(), llmclient.ScriptRequest{Source: "  "})
	tester.ErrIs(t, err, llmclient.ErrEmptySource)
}

func TestFakeImage(t *testing.T) {
	fake := NewFakeClient()
	img, err := fake.GenerateImage(context.Background(), llmclient.ImageRequest{Prompt: "ok"})
	tester.NoErr(t, err)
	tester.True(t, strings.HasPrefix(img.DataURI(), "data:image/png;base64,iVBOR"), "png data uri")

	_, err = fake.GenerateImage(context.Background(), llmclient.ImageRequest{Prompt: "x [[blocked]]"})
	tester.ErrIs(t, err, llmclient.ErrSafetyBlocked)
	tester.Eq(t, fake.ImageCalls(), int64(2))
}
