package batch

import (
	"context"
	"fmt"
	"sync"

	"infographify/internal/slide"
)

// Update is one applied patch as observed by subscribers.
type Update struct {
	Seq      int64          `json:"seq"`
	Position int            `json:"position"`
	Patch    slide.Patch    `json:"patch"`
	Record   slide.Record   `json:"record"`
	Progress slide.Progress `json:"progress"`
}

// Board is the Sink used by the gateway. Every patch is computed against
// the snapshot held under the lock, so concurrent patches to different
// positions never overwrite each other.
type Board struct {
	mu     sync.Mutex
	slides []slide.Record
	seq    int64
	subs   map[int]chan Update
	nextID int
}

func NewBoard(list []slide.Record) *Board {
	return &Board{
		slides: slide.Clone(list),
		subs:   make(map[int]chan Update),
	}
}

func (b *Board) Snapshot() []slide.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slide.Clone(b.slides)
}

func (b *Board) Progress() slide.Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slide.Tally(b.slides)
}

// Seq is the number of patches applied so far.
func (b *Board) Seq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

func (b *Board) Apply(pos int, p slide.Patch) []slide.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos < 0 || pos >= len(b.slides) {
		return slide.Clone(b.slides)
	}
	b.applyLocked(pos, p)
	return slide.Clone(b.slides)
}

// Claim marks the record at pos generating unless it already is, and
// returns the record as it was before. The check and the patch happen
// under one lock, so two concurrent claims never both succeed.
func (b *Board) Claim(pos int) (slide.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos < 0 || pos >= len(b.slides) {
		return slide.Record{}, fmt.Errorf("%w: %d", ErrPositionRange, pos)
	}
	rec := b.slides[pos]
	if rec.Status == slide.StatusGenerating {
		return slide.Record{}, ErrAlreadyGenerating
	}
	b.applyLocked(pos, slide.Generating())
	return rec, nil
}

func (b *Board) applyLocked(pos int, p slide.Patch) {
	b.slides = slide.ApplyPatch(b.slides, pos, p)
	b.seq++
	u := Update{
		Seq:      b.seq,
		Position: pos,
		Patch:    p,
		Record:   b.slides[pos],
		Progress: slide.Tally(b.slides),
	}
	for _, ch := range b.subs {
		pushUpdate(ch, u)
	}
}

// Subscribe streams every later Update until ctx is done. Slow readers
// lose the oldest buffered updates; each Update carries the full record
// and progress so a reader can always resync from the latest one.
func (b *Board) Subscribe(ctx context.Context) <-chan Update {
	ch := make(chan Update, 64)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func pushUpdate(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}
