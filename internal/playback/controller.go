package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/render"
)

const (
	DefaultFPS = 12
	MinUIFPS   = 1
	MaxUIFPS   = 60
)

var (
	ErrInvalidRate     = errors.New("frame rate must be positive")
	ErrFrameOutOfRange = errors.New("frame index out of range")
)

// FrameSource is the part of a FrameSet the controller reads.
type FrameSource interface {
	Snapshot() frames.Snapshot
}

// State is the observable playback state.
type State struct {
	Cursor  int
	Playing bool
	FPS     int
	Loop    bool
}

// RenderEvent describes one render onto the surface.
type RenderEvent struct {
	Batch     string
	Index     int
	Drawn     bool // false when the slot was unresolved and the surface was left blank
	Placement render.Placement
}

// Controller advances a cursor through a FrameSet on a timer and renders the
// current frame onto a Surface. All state changes and renders happen under one
// mutex, so a tick is a single atomic step.
type Controller struct {
	src     FrameSource
	surface render.Surface
	sched   Scheduler
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	task  Task
	gen   uint64

	obsMu     sync.RWMutex
	observers []func(RenderEvent)
}

// Option configures a Controller.
type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

func WithFPS(fps int) Option {
	return func(c *Controller) {
		if fps > 0 {
			c.state.FPS = fps
		}
	}
}

func WithLoop(loop bool) Option {
	return func(c *Controller) { c.state.Loop = loop }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController returns a stopped controller at cursor 0, looping at DefaultFPS.
func NewController(src FrameSource, surface render.Surface, opts ...Option) *Controller {
	c := &Controller{
		src:     src,
		surface: surface,
		sched:   TickerScheduler{},
		logger:  slog.Default(),
		state:   State{FPS: DefaultFPS, Loop: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnRender registers an observer called after every render, outside the
// controller's lock.
func (c *Controller) OnRender(fn func(RenderEvent)) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Interval returns the tick period for the current rate.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return interval(c.state.FPS)
}

// interval is the tick period for fps. Rates above one tick per nanosecond
// are clamped to 1ns.
func interval(fps int) time.Duration {
	return max(time.Second/time.Duration(fps), time.Nanosecond)
}

// TogglePlay starts or stops playback. Starting with no frames reports
// frames.ErrEmptyInput and stays stopped.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Playing {
		c.stopLocked()
		return nil
	}
	if c.src.Snapshot().Len() == 0 {
		return frames.ErrEmptyInput
	}
	c.startLocked()
	return nil
}

// Stop halts playback. The pending tick, if any, is cancelled.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// SetLoop sets whether playback wraps from the last frame to the first.
func (c *Controller) SetLoop(loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loop = loop
}

// ToggleLoop flips looping and returns the new value.
func (c *Controller) ToggleLoop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loop = !c.state.Loop
	return c.state.Loop
}

// SetFPS changes the rate. While playing, the tick task is replaced by one at
// the new interval; the cursor is kept and nothing is rendered.
func (c *Controller) SetFPS(fps int) error {
	if fps <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRate, fps)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FPS = fps
	if c.state.Playing {
		c.stopLocked()
		c.startLocked()
	}
	return nil
}

// Select stops playback, moves the cursor to index and renders it once.
func (c *Controller) Select(index int) error {
	c.mu.Lock()
	c.stopLocked()
	snap := c.src.Snapshot()
	n := snap.Len()
	if n == 0 {
		c.mu.Unlock()
		return frames.ErrEmptyInput
	}
	if index < 0 || index >= n {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d]", ErrFrameOutOfRange, index, n-1)
	}
	c.state.Cursor = index
	ev := c.renderLocked(snap)
	c.mu.Unlock()

	c.emit(ev)
	return nil
}

// Resize changes the surface size and redraws the current frame.
func (c *Controller) Resize(size int) {
	c.mu.Lock()
	c.surface.Resize(size)
	snap := c.src.Snapshot()
	if snap.Len() == 0 {
		c.mu.Unlock()
		return
	}
	c.clampLocked(snap.Len())
	ev := c.renderLocked(snap)
	c.mu.Unlock()

	c.emit(ev)
}

// RedrawIdle renders the current frame only while playback is stopped, so a
// running tick stream is never interleaved with an extra render. It reports
// whether a render happened.
func (c *Controller) RedrawIdle() bool {
	c.mu.Lock()
	snap := c.src.Snapshot()
	if c.state.Playing || snap.Len() == 0 {
		c.mu.Unlock()
		return false
	}
	c.clampLocked(snap.Len())
	ev := c.renderLocked(snap)
	c.mu.Unlock()

	c.emit(ev)
	return true
}

// Reset stops playback, rewinds to frame 0 and blanks the surface. It is used
// when the FrameSet is replaced.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.state.Cursor = 0
	c.surface.Clear()
}

func (c *Controller) startLocked() {
	c.state.Playing = true
	c.gen++
	gen := c.gen
	c.task = c.sched.Every(interval(c.state.FPS), func() { c.tick(gen) })
	c.logger.Debug("playback started", "fps", c.state.FPS, "cursor", c.state.Cursor, "loop", c.state.Loop)
}

func (c *Controller) stopLocked() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
	// invalidates any tick of the old task that is already waiting on the lock
	c.gen++
	if c.state.Playing {
		c.state.Playing = false
		c.logger.Debug("playback stopped", "cursor", c.state.Cursor)
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.state.Playing {
		c.mu.Unlock()
		return
	}
	snap := c.src.Snapshot()
	n := snap.Len()
	if n == 0 {
		c.stopLocked()
		c.mu.Unlock()
		return
	}

	next := (c.state.Cursor + 1) % n
	if !c.state.Loop && next == 0 {
		c.stopLocked()
		next = n - 1
	}
	c.state.Cursor = next
	ev := c.renderLocked(snap)
	c.mu.Unlock()

	c.emit(ev)
}

func (c *Controller) clampLocked(n int) {
	if c.state.Cursor >= n {
		c.state.Cursor = n - 1
	}
	if c.state.Cursor < 0 {
		c.state.Cursor = 0
	}
}

func (c *Controller) renderLocked(snap frames.Snapshot) RenderEvent {
	ev := RenderEvent{Batch: snap.Batch(), Index: c.state.Cursor}
	f, ok := snap.Frame(c.state.Cursor)
	if !ok {
		render.Present(c.surface, nil)
		return ev
	}
	ev.Drawn = true
	ev.Placement = render.Present(c.surface, f.Image)
	return ev
}

func (c *Controller) emit(ev RenderEvent) {
	c.obsMu.RLock()
	observers := make([]func(RenderEvent), len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()
	for _, fn := range observers {
		fn(ev)
	}
}
