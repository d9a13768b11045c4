package batch

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"infographify/internal/slide"
)

// Policy selects how a batch drives its records.
type Policy string

const (
	// PolicySequential drives records one at a time in list order and
	// checks the cancel flag before each one.
	PolicySequential Policy = "sequential"
	// PolicyParallel launches every eligible record at once. It has no
	// cancellation point once launched.
	PolicyParallel Policy = "parallel"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySequential:
		return PolicySequential, nil
	case PolicyParallel:
		return PolicyParallel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Generator renders one slide and returns a reference to the image.
type Generator interface {
	Generate(ctx context.Context, rec slide.Record) (string, error)
}

type GeneratorFunc func(ctx context.Context, rec slide.Record) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, rec slide.Record) (string, error) {
	return f(ctx, rec)
}

// Sink owns the slide list. The orchestrator reads the latest snapshot and
// requests single-position patches; it never keeps a list of its own.
type Sink interface {
	Snapshot() []slide.Record
	Apply(pos int, p slide.Patch) []slide.Record
}

// claimer is implemented by sinks that can check and mark a record
// generating atomically. Board does.
type claimer interface {
	Claim(pos int) (slide.Record, error)
}

// CancelFlag is the user's stop request for a sequential batch. The zero
// value is ready to use; a nil flag is never cancelled.
type CancelFlag struct {
	v atomic.Bool
}

func (c *CancelFlag) Cancel() {
	if c != nil {
		c.v.Store(true)
	}
}

func (c *CancelFlag) Cancelled() bool {
	return c != nil && c.v.Load()
}

// Summary describes how a run ended.
type Summary struct {
	Policy   Policy         `json:"policy"`
	Progress slide.Progress `json:"progress"`
	// Cancelled is set when a sequential run stopped on the cancel flag or
	// a done context. Untouched records stay pending.
	Cancelled bool `json:"cancelled,omitempty"`
	// Halted is set when a sequential run stopped on a reauthentication error.
	Halted bool `json:"halted,omitempty"`
}
