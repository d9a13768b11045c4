package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
)

// Orchestrator drives slide records through image generation.
type Orchestrator struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Orchestrator {
	return &Orchestrator{log: log.With().Str("component", "batch").Logger()}
}

// Run drives every eligible record of sink with the given policy.
//
// A sequential run returns an error wrapping llmclient.ErrReauthRequired
// when a slide reports expired credentials; every other generation error
// only fails its own record.
func (o *Orchestrator) Run(ctx context.Context, sink Sink, policy Policy, gen Generator, cancel *CancelFlag) (Summary, error) {
	switch policy {
	case PolicySequential:
		return o.runSequential(ctx, sink, gen, cancel)
	case PolicyParallel:
		return o.runParallel(ctx, sink, gen)
	}
	return Summary{Policy: policy}, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}

func (o *Orchestrator) runSequential(ctx context.Context, sink Sink, gen Generator, cancel *CancelFlag) (Summary, error) {
	sum := Summary{Policy: PolicySequential}
	n := len(sink.Snapshot())
	for pos := 0; pos < n; pos++ {
		if cancel.Cancelled() || ctx.Err() != nil {
			o.log.Info().Int("position", pos).Msg("sequential batch cancelled")
			sum.Cancelled = true
			break
		}
		rec, ok := recordAt(sink.Snapshot(), pos)
		if !ok || !slide.Eligible(rec) {
			continue
		}
		sink.Apply(pos, slide.Generating())
		if err := o.settle(ctx, sink, pos, rec, gen); errors.Is(err, llmclient.ErrReauthRequired) {
			o.log.Warn().Int("position", pos).Msg("sequential batch halted: reauthentication required")
			sum.Halted = true
			sum.Progress = slide.Tally(sink.Snapshot())
			return sum, fmt.Errorf("slide %d: %w", rec.Index, err)
		}
	}
	sum.Progress = slide.Tally(sink.Snapshot())
	return sum, nil
}

func (o *Orchestrator) runParallel(ctx context.Context, sink Sink, gen Generator) (Summary, error) {
	snap := sink.Snapshot()
	todo := make([]int, 0, len(snap))
	for pos, rec := range snap {
		if slide.Eligible(rec) {
			todo = append(todo, pos)
		}
	}
	for _, pos := range todo {
		sink.Apply(pos, slide.Generating())
	}

	var g errgroup.Group
	for _, pos := range todo {
		rec := snap[pos]
		g.Go(func() error {
			_ = o.settle(ctx, sink, pos, rec, gen)
			return nil
		})
	}
	_ = g.Wait()
	return Summary{Policy: PolicyParallel, Progress: slide.Tally(sink.Snapshot())}, nil
}

// Regenerate drives the single record at pos again. It returns the
// generation error, if any, after the record has been marked failed.
// The request is marked fresh so memoized images are not replayed.
func (o *Orchestrator) Regenerate(ctx context.Context, sink Sink, pos int, gen Generator) error {
	rec, err := claim(sink, pos)
	if err != nil {
		return err
	}
	return o.settle(llmclient.WithFresh(ctx), sink, pos, rec, gen)
}

func claim(sink Sink, pos int) (slide.Record, error) {
	if c, ok := sink.(claimer); ok {
		return c.Claim(pos)
	}
	rec, ok := recordAt(sink.Snapshot(), pos)
	if !ok {
		return slide.Record{}, fmt.Errorf("%w: %d", ErrPositionRange, pos)
	}
	if rec.Status == slide.StatusGenerating {
		return slide.Record{}, ErrAlreadyGenerating
	}
	sink.Apply(pos, slide.Generating())
	return rec, nil
}

// settle runs the generator for a record already marked generating and
// applies the outcome.
func (o *Orchestrator) settle(ctx context.Context, sink Sink, pos int, rec slide.Record, gen Generator) error {
	url, err := o.generate(ctx, gen, rec)
	if err != nil {
		o.log.Warn().Err(err).Int("position", pos).Int("index", rec.Index).Msg("slide failed")
		sink.Apply(pos, slide.Failed(FailureMessage(err)))
		return err
	}
	o.log.Debug().Int("position", pos).Int("index", rec.Index).Msg("slide completed")
	sink.Apply(pos, slide.Completed(url))
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, gen Generator, rec slide.Record) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			url, err = "", fmt.Errorf("%w: %v", ErrGeneratorPanic, r)
		}
	}()
	url, err = gen.Generate(ctx, rec)
	if err == nil && strings.TrimSpace(url) == "" {
		err = llmclient.ErrNoImageData
	}
	return url, err
}

func recordAt(list []slide.Record, pos int) (slide.Record, bool) {
	if pos < 0 || pos >= len(list) {
		return slide.Record{}, false
	}
	return list[pos], true
}
