package script

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"infographify/internal/llm"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/tester"
	"infographify/internal/types"
)

type stuckScript struct{}

func (stuckScript) Name() string { return "stuck" }
func (stuckScript) GenerateScript(ctx context.Context, _ llmclient.ScriptRequest) (llmclient.ScriptResult, error) {
	<-ctx.Done()
	return llmclient.ScriptResult{}, ctx.Err()
}

func TestDraftCountsParsedSlides(t *testing.T) {
	svc := New(llm.NewFakeClient(), zerolog.Nop())
	d, err := svc.Draft(context.Background(), "Solar adoption in 2025", types.GenerationConfig{SlideCount: 3})
	tester.NoErr(t, err)
	tester.Eq(t, d.SlideCount, 3)
}

func TestDraftRejectsEmptySource(t *testing.T) {
	fake := llm.NewFakeClient()
	svc := New(fake, zerolog.Nop())
	_, err := svc.Draft(context.Background(), " \n\t", types.GenerationConfig{})
	tester.ErrIs(t, err, llmclient.ErrEmptySource)
	tester.Eq(t, fake.ScriptCalls(), int64(0))
}

func TestDraftTimesOut(t *testing.T) {
	svc := New(llm.WrapScript(stuckScript{}, llm.Timeout(10*time.Millisecond)), zerolog.Nop())
	_, err := svc.Draft(context.Background(), "anything", types.GenerationConfig{})
	tester.ErrIs(t, err, llmclient.ErrScriptTimeout)
}

func TestDraftTreatsImageOnlySourceAsEmpty(t *testing.T) {
	fake := llm.NewFakeClient()
	_, err := New(fake, zerolog.Nop()).Draft(context.Background(), "![cover](cover.png)\n<!-- todo -->", types.GenerationConfig{})
	tester.ErrIs(t, err, llmclient.ErrEmptySource)
	tester.Eq(t, fake.ScriptCalls(), int64(0))
}
