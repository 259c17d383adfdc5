package frames

import (
	"context"
	"image"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Set is the ordered collection of frames for the current animation. Slots are
// published copy-on-write so Snapshot is cheap and never observes a partial
// update.
type Set struct {
	decoder Decoder
	workers int
	logger  *slog.Logger

	mu        sync.RWMutex
	gen       uint64
	batch     string
	slots     []Slot
	pending   int
	done      chan struct{}
	cancel    context.CancelFunc
	listeners []func(Event)
}

// Option configures a Set.
type Option func(*Set)

// WithDecoder replaces the default ImageDecoder.
func WithDecoder(d Decoder) Option {
	return func(s *Set) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithWorkers bounds the number of concurrent decodes.
func WithWorkers(n int) Option {
	return func(s *Set) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger used for skipped and failed entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSet returns an empty FrameSet.
func NewSet(opts ...Option) *Set {
	done := make(chan struct{})
	close(done)
	s := &Set{
		decoder: ImageDecoder{},
		workers: 4,
		logger:  slog.Default(),
		done:    done,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the whole set with the image entries of the list. Non-image
// entries are dropped. The previous slots are cleared before Load returns; the
// new slots resolve asynchronously and in no particular order.
func (s *Set) Load(ctx context.Context, entries []Entry) Batch {
	kept := make([]Entry, 0, len(entries))
	var rejected []string
	for _, e := range entries {
		if IsImage(e) {
			kept = append(kept, e)
		} else {
			rejected = append(rejected, e.Name)
		}
	}
	batch := Batch{ID: uuid.NewString(), Requested: len(kept), Rejected: rejected}

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.pending > 0 {
		// wake waiters of the superseded batch
		close(s.done)
	}
	s.gen++
	gen := s.gen
	s.batch = batch.ID
	s.cancel = cancel
	slots := make([]Slot, len(kept))
	for i, e := range kept {
		slots[i] = Slot{Name: e.Name, State: Pending}
	}
	s.slots = slots
	s.pending = len(kept)
	s.done = make(chan struct{})
	if s.pending == 0 {
		close(s.done)
	}
	s.mu.Unlock()

	for _, name := range rejected {
		s.logger.Info("skipping non-image entry", "batch", batch.ID, "name", name)
	}
	if len(kept) == 0 {
		cancel()
		return batch
	}

	s.logger.Debug("decoding batch", "batch", batch.ID, "frames", len(kept), "workers", s.workers)

	go func() {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for i, e := range kept {
			g.Go(func() error {
				img, err := s.decoder.Decode(ctx, e.Data)
				s.settle(gen, i, e.Name, img, err)
				return nil
			})
		}
		_ = g.Wait()
		cancel()
	}()

	return batch
}

func (s *Set) settle(gen uint64, i int, name string, img image.Image, err error) {
	slot := Slot{Name: name}
	if err == nil && img == nil {
		err = ErrDecodeFailure
	}
	if err != nil {
		slot.State = Failed
		slot.Err = err
	} else {
		b := img.Bounds()
		slot.State = Resolved
		slot.Frame = &Frame{Index: i, Name: name, Image: img, Width: b.Dx(), Height: b.Dy()}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	slots := slices.Clone(s.slots)
	slots[i] = slot
	s.slots = slots
	s.pending--
	settled := s.pending == 0
	if settled {
		close(s.done)
	}
	ev := Event{Batch: s.batch, Index: i, State: slot.State, Settled: settled}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("dropping frame", "batch", ev.Batch, "index", i, "name", name, "error", err)
	}
	for _, fn := range listeners {
		fn(ev)
	}
}

// Subscribe registers fn for settle events. Listeners run outside the set's lock
// and may be called from several decode goroutines at once.
func (s *Set) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the current state of slot i.
func (s *Set) Get(i int) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.slots) {
		return Slot{}, false
	}
	return s.slots[i], true
}

// Size returns the number of slots requested by the current batch.
func (s *Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Snapshot returns an immutable view of the current slots.
func (s *Set) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{batch: s.batch, slots: s.slots}
}

// Wait blocks until the current batch has settled or is superseded.
func (s *Set) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
