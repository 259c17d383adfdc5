package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ivlev/frames2sprite/internal/export"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/playback"
	"github.com/ivlev/frames2sprite/internal/prompt"
)

// Level is the severity of a user-facing notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a message for the user. Failures surface here instead of aborting.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notices. It may be called from decode goroutines.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// State is a snapshot of everything a UI needs to draw its status line.
type State struct {
	Playback  playback.State
	Batch     string
	Frames    int
	Resolved  int
	Settled   bool
	Animation string
}

// Session wires a FrameSet, a playback Controller and an export Coordinator
// behind explicit commands. Each command returns its error and also reports
// it as a Notice.
type Session struct {
	set      *frames.Set
	ctrl     *playback.Controller
	exporter *export.Coordinator
	notifier Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	animation string
}

type Option func(*Session)

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAnimation sets the initial catalog label used for artifact names.
func WithAnimation(label string) Option {
	return func(s *Session) { s.animation = label }
}

// NewSession builds a session. ctrl must read its frames from set.
func NewSession(set *frames.Set, ctrl *playback.Controller, exporter *export.Coordinator, opts ...Option) *Session {
	s := &Session{
		set:      set,
		ctrl:     ctrl,
		exporter: exporter,
		notifier: NotifierFunc(func(Notice) {}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	set.Subscribe(s.onSettle)
	return s
}

func (s *Session) notify(level Level, err error, format string, args ...any) {
	s.notifier.Notify(Notice{Level: level, Message: fmt.Sprintf(format, args...), Err: err})
}

// OnLoad stops playback, replaces the FrameSet with entries and starts
// decoding. The first frame is drawn once the whole batch has settled.
func (s *Session) OnLoad(ctx context.Context, entries []frames.Entry) (frames.Batch, error) {
	s.ctrl.Reset()
	batch := s.set.Load(ctx, entries)
	s.logger.Info("frames loading",
		"batch", batch.ID,
		"requested", batch.Requested,
		"rejected", len(batch.Rejected),
	)
	if batch.Requested == 0 {
		s.notify(LevelInfo, frames.ErrEmptyInput, "No image files found")
		return batch, frames.ErrEmptyInput
	}
	if n := len(batch.Rejected); n > 0 {
		s.notify(LevelInfo, nil, "Loading %d frames (%d non-image files ignored)", batch.Requested, n)
	} else {
		s.notify(LevelInfo, nil, "Loading %d frames", batch.Requested)
	}
	return batch, nil
}

func (s *Session) onSettle(ev frames.Event) {
	if !ev.Settled {
		return
	}
	snap := s.set.Snapshot()
	if snap.Batch() != ev.Batch {
		return
	}
	// a playing controller paints on its own ticks
	s.ctrl.RedrawIdle()

	failed := snap.Len() - snap.Resolved()
	s.logger.Info("frames loaded", "batch", ev.Batch, "resolved", snap.Resolved(), "failed", failed)
	if failed > 0 {
		s.notify(LevelWarn, frames.ErrDecodeFailure, "Loaded %d of %d frames, %d could not be decoded", snap.Resolved(), snap.Len(), failed)
		return
	}
	s.notify(LevelInfo, nil, "Loaded %d frames", snap.Len())
}

// OnTogglePlay starts or stops playback.
func (s *Session) OnTogglePlay() error {
	err := s.ctrl.TogglePlay()
	if errors.Is(err, frames.ErrEmptyInput) {
		s.notify(LevelInfo, err, "Please upload animation frames first")
	}
	return err
}

// OnToggleLoop flips looping and returns the new setting.
func (s *Session) OnToggleLoop() bool {
	loop := s.ctrl.ToggleLoop()
	if loop {
		s.notify(LevelInfo, nil, "Loop: ON")
	} else {
		s.notify(LevelInfo, nil, "Loop: OFF")
	}
	return loop
}

// OnRateChange sets the playback rate in frames per second.
func (s *Session) OnRateChange(fps int) error {
	if err := s.ctrl.SetFPS(fps); err != nil {
		s.notify(LevelWarn, err, "Invalid frame rate %d", fps)
		return err
	}
	return nil
}

// OnSelectFrame stops playback and shows frame i.
func (s *Session) OnSelectFrame(i int) error {
	err := s.ctrl.Select(i)
	switch {
	case err == nil:
	case errors.Is(err, frames.ErrEmptyInput):
		s.notify(LevelInfo, err, "Please upload animation frames first")
	default:
		s.notify(LevelWarn, err, "No frame %d", i+1)
	}
	return err
}

// OnResize changes the preview canvas size and redraws.
func (s *Session) OnResize(size int) {
	s.ctrl.Resize(size)
}

// OnExportFrames saves each resolved frame as its own PNG.
func (s *Session) OnExportFrames(ctx context.Context) (export.Report, error) {
	snap := s.set.Snapshot()
	rep, err := s.exporter.ExportFrames(ctx, snap, s.Slug())
	switch {
	case errors.Is(err, frames.ErrEmptyInput):
		s.notify(LevelInfo, err, "No frames to download")
	case err != nil:
		s.logger.Error("frame export failed", "batch", snap.Batch(), "error", err)
		s.notify(LevelError, err, "Frame export failed: %v", err)
	case len(rep.Skipped) > 0:
		s.notify(LevelWarn, nil, "Exported %d frames, skipped %d not yet decoded", len(rep.Written), len(rep.Skipped))
	default:
		s.notify(LevelInfo, nil, "Exported %d frames", len(rep.Written))
	}
	return rep, err
}

// OnExportSheet saves the packed sprite sheet.
func (s *Session) OnExportSheet(ctx context.Context) (export.Report, error) {
	snap := s.set.Snapshot()
	rep, err := s.exporter.ExportSheet(ctx, snap, s.Slug())
	switch {
	case errors.Is(err, frames.ErrEmptyInput):
		s.notify(LevelInfo, err, "No frames to generate sprite sheet")
	case err != nil:
		s.logger.Error("sprite sheet export failed", "batch", snap.Batch(), "error", err)
		s.notify(LevelError, err, "Sprite sheet export failed: %v", err)
	default:
		s.notify(LevelInfo, nil, "Sprite sheet saved as %s", rep.Written[0])
	}
	return rep, err
}

// OnExportAnimated requests an animated export, which this build cannot
// produce.
func (s *Session) OnExportAnimated(ctx context.Context) error {
	err := s.exporter.ExportAnimated(ctx, s.set.Snapshot(), s.Slug())
	switch {
	case errors.Is(err, frames.ErrEmptyInput):
		s.notify(LevelInfo, err, "No frames to export as GIF")
	case errors.Is(err, export.ErrUnsupportedCapability):
		s.notify(LevelInfo, err, "GIF export is not available in this build; export frames or a sprite sheet instead")
	case err != nil:
		s.notify(LevelError, err, "GIF export failed: %v", err)
	}
	return err
}

// SetAnimation selects the catalog label that names exported artifacts.
func (s *Session) SetAnimation(label string) {
	s.mu.Lock()
	s.animation = label
	s.mu.Unlock()
}

// Slug is the artifact prefix derived from the current animation label.
func (s *Session) Slug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return prompt.Slug(s.animation)
}

// OnRender registers an observer for every preview render.
func (s *Session) OnRender(fn func(playback.RenderEvent)) {
	s.ctrl.OnRender(fn)
}

// Wait blocks until the current batch has settled.
func (s *Session) Wait(ctx context.Context) error {
	return s.set.Wait(ctx)
}

// Snapshot returns the current frames.
func (s *Session) Snapshot() frames.Snapshot {
	return s.set.Snapshot()
}

func (s *Session) State() State {
	snap := s.set.Snapshot()
	s.mu.Lock()
	animation := s.animation
	s.mu.Unlock()
	return State{
		Playback:  s.ctrl.State(),
		Batch:     snap.Batch(),
		Frames:    snap.Len(),
		Resolved:  snap.Resolved(),
		Settled:   snap.Settled(),
		Animation: animation,
	}
}

// Close stops playback.
func (s *Session) Close() {
	s.ctrl.Stop()
}
