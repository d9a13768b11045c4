// Package runstore persists run snapshots so a finished or interrupted
// batch can still be inspected after the in-memory board is gone.
package runstore

import (
	"context"
	"errors"
	"time"

	"infographify/internal/batch"
	"infographify/internal/slide"
	"infographify/internal/types"
)

type State string

const (
	StateRunning   State = "running"
	StateFinished  State = "finished"
	StateCancelled State = "cancelled"
	StateHalted    State = "halted"
)

type Snapshot struct {
	RunID     string                 `json:"runId"`
	State     State                  `json:"state"`
	Policy    batch.Policy           `json:"policy"`
	Config    types.GenerationConfig `json:"config"`
	Slides    []slide.Record         `json:"slides"`
	Progress  slide.Progress         `json:"progress"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

var ErrNotFound = errors.New("run not found")

type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, runID string) (Snapshot, error)
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Slides = slide.Clone(s.Slides)
	return s
}
