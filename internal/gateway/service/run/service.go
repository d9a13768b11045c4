package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"infographify/internal/batch"
	"infographify/internal/export"
	"infographify/internal/gateway/repository/artifact"
	"infographify/internal/gateway/repository/runstore"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/slide"
	"infographify/internal/types"
)

type StartRequest struct {
	Script string                 `json:"script"`
	Config types.GenerationConfig `json:"config"`
	Policy batch.Policy           `json:"policy"`
}

// Service owns every run started by this process. Live runs are held in
// memory; snapshots go to the run store at start, on each settled slide
// and at the end.
type Service struct {
	images    llmclient.ImageClient
	artifacts artifact.Store
	runs      runstore.Store
	orch      *batch.Orchestrator
	fetch     export.Fetcher
	log       zerolog.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]*liveRun
}

type liveRun struct {
	id        string
	policy    batch.Policy
	config    types.GenerationConfig
	createdAt time.Time
	board     *batch.Board
	cancel    *batch.CancelFlag

	// saveMu orders snapshot saves so the stored run never goes backwards.
	saveMu sync.Mutex

	mu      sync.Mutex
	running bool
	state   runstore.State
	err     string
}

// exportFetchTimeout bounds the download of one stored image during export.
const exportFetchTimeout = 30 * time.Second

func New(images llmclient.ImageClient, artifacts artifact.Store, runs runstore.Store, log zerolog.Logger) *Service {
	if runs == nil {
		runs = runstore.NewMemoryStore()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		images:    images,
		artifacts: artifacts,
		runs:      runs,
		orch:      batch.New(log),
		fetch:     export.NewHTTPFetcher(exportFetchTimeout),
		log:       log,
		baseCtx:   ctx,
		stop:      stop,
		active:    make(map[string]*liveRun),
	}
}

// Start parses the script and launches the batch in the background. The
// returned snapshot shows the run before any slide was attempted.
func (s *Service) Start(ctx context.Context, req StartRequest) (runstore.Snapshot, error) {
	policy, err := batch.ParsePolicy(string(req.Policy))
	if err != nil {
		return runstore.Snapshot{}, err
	}
	slides := slide.Parse(req.Script)
	if len(slides) == 0 {
		return runstore.Snapshot{}, ErrNoSlides
	}
	if err := s.baseCtx.Err(); err != nil {
		return runstore.Snapshot{}, fmt.Errorf("service is shutting down: %w", err)
	}

	r := &liveRun{
		id:        uuid.NewString(),
		policy:    policy,
		config:    req.Config.WithDefaults(),
		createdAt: time.Now().UTC(),
		board:     batch.NewBoard(slides),
		cancel:    &batch.CancelFlag{},
		running:   true,
		state:     runstore.StateRunning,
	}
	s.mu.Lock()
	s.active[r.id] = r
	s.mu.Unlock()

	snap := s.snapshot(r)
	if err := s.runs.Save(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("run_id", r.id).Msg("save run snapshot")
	}

	s.wg.Add(1)
	go s.drive(r)
	s.log.Info().Str("run_id", r.id).Str("policy", string(policy)).Int("slides", len(slides)).Msg("run started")
	return snap, nil
}

func (s *Service) drive(r *liveRun) {
	defer s.wg.Done()
	sum, err := s.orch.Run(s.baseCtx, s.sink(r), r.policy, s.renderer(r), r.cancel)

	r.mu.Lock()
	r.running = false
	switch {
	case sum.Halted:
		r.state = runstore.StateHalted
	case sum.Cancelled:
		r.state = runstore.StateCancelled
	default:
		r.state = runstore.StateFinished
	}
	if err != nil {
		r.err = batch.FailureMessage(err)
	}
	r.mu.Unlock()

	s.persist(r)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("run_id", r.id).
		Str("state", string(r.state)).
		Int("completed", sum.Progress.Completed).
		Int("failed", sum.Progress.Failed).
		Msg("run ended")
}

// Get returns the live snapshot, or the stored one for runs this process
// no longer holds.
func (s *Service) Get(ctx context.Context, runID string) (runstore.Snapshot, error) {
	if r, ok := s.lookup(runID); ok {
		return s.snapshot(r), nil
	}
	snap, err := s.runs.Get(ctx, strings.TrimSpace(runID))
	if errors.Is(err, runstore.ErrNotFound) {
		return runstore.Snapshot{}, ErrRunNotFound
	}
	return snap, err
}

// Cancel stops a sequential run before its next slide. It is a no-op for
// finished runs and for parallel runs, whose requests are all in flight.
func (s *Service) Cancel(runID string) (runstore.Snapshot, error) {
	r, ok := s.lookup(runID)
	if !ok {
		return runstore.Snapshot{}, ErrRunNotFound
	}
	r.cancel.Cancel()
	return s.snapshot(r), nil
}

// Export collects the completed images of a run in slide order, plus a
// manifest of every slide. It works on live and stored runs and does not
// wait for a running batch.
func (s *Service) Export(ctx context.Context, runID string) ([]export.Entry, error) {
	snap, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	entries, err := export.Slides(ctx, snap.Slides, s.fetch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("run_id", runID).Int("files", len(entries)).Msg("run exported")
	return entries, nil
}

// Regenerate re-renders one slide of a run whose batch has ended and
// returns the generation error, if any. Runs only present in the store are
// reloaded first.
func (s *Service) Regenerate(ctx context.Context, runID string, pos int) (runstore.Snapshot, error) {
	r, err := s.liveOrRestore(ctx, runID)
	if err != nil {
		return runstore.Snapshot{}, err
	}
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		return s.snapshot(r), ErrRunInProgress
	}

	// Detached from ctx: a client that hangs up should not fail the slide.
	genErr := s.orch.Regenerate(s.baseCtx, s.sink(r), pos, s.renderer(r))
	snap := s.snapshot(r)
	if genErr != nil {
		s.log.Warn().Err(genErr).Str("run_id", r.id).Int("position", pos).Msg("regenerate failed")
	}
	return snap, genErr
}

// Subscribe streams the updates of a live run. The first return value is
// the snapshot the updates apply to.
func (s *Service) Subscribe(ctx context.Context, runID string) (runstore.Snapshot, <-chan batch.Update, error) {
	r, err := s.liveOrRestore(ctx, runID)
	if err != nil {
		return runstore.Snapshot{}, nil, err
	}
	updates := r.board.Subscribe(ctx)
	return s.snapshot(r), updates, nil
}

// Shutdown aborts in-flight requests and waits for every run goroutine to
// record its final state.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) lookup(runID string) (*liveRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[strings.TrimSpace(runID)]
	return r, ok
}

// liveOrRestore loads a stored run back into memory. Slides that were
// generating when the snapshot was taken can never settle and are marked
// failed.
func (s *Service) liveOrRestore(ctx context.Context, runID string) (*liveRun, error) {
	if r, ok := s.lookup(runID); ok {
		return r, nil
	}
	snap, err := s.runs.Get(ctx, strings.TrimSpace(runID))
	if errors.Is(err, runstore.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	slides := snap.Slides
	for i, rec := range slides {
		if rec.Status == slide.StatusGenerating {
			slides = slide.ApplyPatch(slides, i, slide.Failed("Generation interrupted."))
		}
	}
	state := snap.State
	if state == runstore.StateRunning {
		state = runstore.StateCancelled
	}
	r := &liveRun{
		id:        snap.RunID,
		policy:    snap.Policy,
		config:    snap.Config,
		createdAt: snap.CreatedAt,
		board:     batch.NewBoard(slides),
		cancel:    &batch.CancelFlag{},
		state:     state,
		err:       snap.Error,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.active[r.id]; ok {
		return existing, nil
	}
	s.active[r.id] = r
	return r, nil
}

func (s *Service) snapshot(r *liveRun) runstore.Snapshot {
	slides := r.board.Snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	return runstore.Snapshot{
		RunID:     r.id,
		State:     r.state,
		Policy:    r.policy,
		Config:    r.config,
		Slides:    slides,
		Progress:  slide.Tally(slides),
		Error:     r.err,
		CreatedAt: r.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
}

func (s *Service) persist(r *liveRun) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Save(ctx, s.snapshot(r)); err != nil {
		s.log.Warn().Err(err).Str("run_id", r.id).Msg("save run snapshot")
	}
}

func (s *Service) renderer(r *liveRun) Renderer {
	return Renderer{
		Images:      s.images,
		Artifacts:   s.artifacts,
		RunID:       r.id,
		Model:       r.config.ImageModel,
		AspectRatio: string(r.config.AspectRatio),
	}
}

func (s *Service) sink(r *liveRun) batch.Sink {
	return &persistingSink{Board: r.board, onSettle: func() { s.persist(r) }}
}

// persistingSink saves the run whenever a slide settles.
type persistingSink struct {
	*batch.Board
	onSettle func()
}

func (p *persistingSink) Apply(pos int, patch slide.Patch) []slide.Record {
	out := p.Board.Apply(pos, patch)
	if patch.Status == slide.StatusCompleted || patch.Status == slide.StatusFailed {
		p.onSettle()
	}
	return out
}
