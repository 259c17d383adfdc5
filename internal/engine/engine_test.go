package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/frames2sprite/internal/config"
	"github.com/ivlev/frames2sprite/internal/export"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/logging"
	"github.com/ivlev/frames2sprite/internal/playback"
	"github.com/ivlev/frames2sprite/internal/render"
)

type recorder struct {
	mu      sync.Mutex
	notices []Notice
	ch      chan Notice
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Notice, 64)}
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	r.ch <- n
}

func (r *recorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

// waitFor blocks until a notice whose message starts with prefix arrives.
func (r *recorder) waitFor(t *testing.T, prefix string) Notice {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case n := <-r.ch:
			if strings.HasPrefix(n.Message, prefix) {
				return n
			}
		case <-timeout:
			t.Fatalf("timed out waiting for notice %q", prefix)
		}
	}
}

type fixture struct {
	session *Session
	sink    *export.MemorySink
	sched   *playback.ManualScheduler
	notices *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Defaults()
	cfg.Preview.CanvasSize = 32
	cfg.Prompt.Animation = "Walk Cycle"
	f := &fixture{
		sink:    export.NewMemorySink(),
		sched:   &playback.ManualScheduler{},
		notices: newRecorder(),
	}
	s, err := Build(cfg, Deps{
		Sink:      f.sink,
		Scheduler: f.sched,
		Notifier:  f.notices,
		Logger:    logging.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	f.session = s
	t.Cleanup(s.Close)
	return f
}

func pngEntry(t *testing.T, name string, w, h int) frames.Entry {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return frames.Entry{Name: name, Data: buf.Bytes()}
}

func (f *fixture) load(t *testing.T, entries ...frames.Entry) {
	t.Helper()
	if _, err := f.session.OnLoad(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	f.notices.waitFor(t, "Loaded")
}

func TestLoadDrawsFirstFrameWhenSettled(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	var renders []playback.RenderEvent
	f.session.OnRender(func(ev playback.RenderEvent) {
		mu.Lock()
		renders = append(renders, ev)
		mu.Unlock()
	})

	f.load(t, pngEntry(t, "01.png", 16, 8), pngEntry(t, "02.png", 16, 8), frames.Entry{Name: "readme.md", Data: []byte("# hi")})

	st := f.session.State()
	if st.Frames != 2 || st.Resolved != 2 || !st.Settled {
		t.Errorf("state = %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(renders) != 1 || renders[0].Index != 0 || !renders[0].Drawn {
		t.Errorf("renders = %+v, want frame 0 drawn once", renders)
	}
}

func TestLoadWithoutImages(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.OnLoad(context.Background(), []frames.Entry{{Name: "a.txt", Data: []byte("text")}})
	if !errors.Is(err, frames.ErrEmptyInput) {
		t.Fatalf("err = %v", err)
	}
	if n := f.notices.last(); n.Level != LevelInfo || !errors.Is(n.Err, frames.ErrEmptyInput) {
		t.Errorf("notice = %+v", n)
	}
}

func TestLoadReportsDecodeFailures(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.OnLoad(context.Background(), []frames.Entry{
		pngEntry(t, "01.png", 4, 4),
		{Name: "02.png", Data: []byte("\x89PNG\r\n\x1a\nbroken")},
	}); err != nil {
		t.Fatal(err)
	}
	n := f.notices.waitFor(t, "Loaded 1 of 2")
	if n.Level != LevelWarn || !errors.Is(n.Err, frames.ErrDecodeFailure) {
		t.Errorf("notice = %+v", n)
	}
}

func TestExportFramesWhenNothingDecoded(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.OnLoad(context.Background(), []frames.Entry{
		{Name: "01.png", Data: []byte("\x89PNG\r\n\x1a\nbroken")},
		{Name: "02.png", Data: []byte("\x89PNG\r\n\x1a\nbroken")},
	}); err != nil {
		t.Fatal(err)
	}
	f.notices.waitFor(t, "Loaded 0 of 2")

	if _, err := f.session.OnExportFrames(context.Background()); !errors.Is(err, frames.ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
	if got := f.notices.last().Message; got != "No frames to download" {
		t.Errorf("notice = %q", got)
	}
	if n := len(f.sink.Names()); n != 0 {
		t.Errorf("artifacts = %d, want 0", n)
	}
}

func TestTogglePlayWithoutFramesNotifies(t *testing.T) {
	f := newFixture(t)
	if err := f.session.OnTogglePlay(); !errors.Is(err, frames.ErrEmptyInput) {
		t.Fatalf("err = %v", err)
	}
	if got := f.notices.last().Message; got != "Please upload animation frames first" {
		t.Errorf("notice = %q", got)
	}
}

func TestReloadStopsPlayback(t *testing.T) {
	f := newFixture(t)
	f.load(t, pngEntry(t, "a.png", 4, 4), pngEntry(t, "b.png", 4, 4), pngEntry(t, "c.png", 4, 4))
	if err := f.session.OnTogglePlay(); err != nil {
		t.Fatal(err)
	}
	f.sched.Tick(2)
	if st := f.session.State().Playback; !st.Playing || st.Cursor != 2 {
		t.Fatalf("playback = %+v", st)
	}

	f.load(t, pngEntry(t, "x.png", 4, 4))

	st := f.session.State().Playback
	if st.Playing || st.Cursor != 0 {
		t.Errorf("playback after reload = %+v, want stopped at 0", st)
	}
	if f.sched.Active() != nil {
		t.Error("tick task should be cancelled on reload")
	}
}

func TestRateAndSelectCommands(t *testing.T) {
	f := newFixture(t)
	f.load(t, pngEntry(t, "a.png", 4, 4), pngEntry(t, "b.png", 4, 4))

	if err := f.session.OnRateChange(0); !errors.Is(err, playback.ErrInvalidRate) {
		t.Errorf("OnRateChange(0) err = %v", err)
	}
	if err := f.session.OnRateChange(24); err != nil {
		t.Fatal(err)
	}
	if err := f.session.OnSelectFrame(5); !errors.Is(err, playback.ErrFrameOutOfRange) {
		t.Errorf("OnSelectFrame(5) err = %v", err)
	}
	if n := f.notices.last(); n.Level != LevelWarn || n.Message != "No frame 6" {
		t.Errorf("notice = %+v", n)
	}
	if err := f.session.OnSelectFrame(1); err != nil {
		t.Fatal(err)
	}
	st := f.session.State().Playback
	if st.Cursor != 1 || st.FPS != 24 {
		t.Errorf("playback = %+v", st)
	}
	if f.session.OnToggleLoop() {
		t.Error("loop should turn off")
	}
}

func TestExportCommandsUseAnimationSlug(t *testing.T) {
	f := newFixture(t)
	f.load(t, pngEntry(t, "a.png", 4, 2), pngEntry(t, "b.png", 4, 2))

	rep, err := f.session.OnExportFrames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"walk_cycle_frame_1.png", "walk_cycle_frame_2.png"}
	if !slices.Equal(rep.Written, want) {
		t.Errorf("written = %v, want %v", rep.Written, want)
	}

	f.session.SetAnimation("Victory Dance (10 frames)")
	if _, err := f.session.OnExportSheet(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.sink.File("victory_dance_spritesheet.png"); !ok {
		t.Errorf("sheet not saved, have %v", f.sink.Names())
	}
	if got := f.notices.last().Message; got != "Sprite sheet saved as victory_dance_spritesheet.png" {
		t.Errorf("notice = %q", got)
	}

	err = f.session.OnExportAnimated(context.Background())
	if !errors.Is(err, export.ErrUnsupportedCapability) {
		t.Errorf("animated err = %v", err)
	}
	if len(f.sink.Names()) != 3 {
		t.Errorf("artifacts = %v", f.sink.Names())
	}
}

func TestExportCommandsWithoutFrames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		run  func() error
		want string
	}{
		{func() error { _, err := f.session.OnExportFrames(ctx); return err }, "No frames to download"},
		{func() error { _, err := f.session.OnExportSheet(ctx); return err }, "No frames to generate sprite sheet"},
		{func() error { return f.session.OnExportAnimated(ctx) }, "No frames to export as GIF"},
	}
	for _, tt := range tests {
		if err := tt.run(); !errors.Is(err, frames.ErrEmptyInput) {
			t.Errorf("%s: err = %v", tt.want, err)
		}
		if got := f.notices.last().Message; got != tt.want {
			t.Errorf("notice = %q, want %q", got, tt.want)
		}
	}
	if len(f.sink.Names()) != 0 {
		t.Errorf("artifacts = %v", f.sink.Names())
	}
}

// gatedDecoder holds every decode until release is closed.
type gatedDecoder struct {
	release chan struct{}
}

func (d gatedDecoder) Decode(ctx context.Context, data []byte) (image.Image, error) {
	<-d.release
	return frames.ImageDecoder{}.Decode(ctx, data)
}

func TestSettleDoesNotRenderWhilePlaying(t *testing.T) {
	gate := gatedDecoder{release: make(chan struct{})}
	set := frames.NewSet(frames.WithDecoder(gate), frames.WithLogger(logging.Discard()))
	sched := &playback.ManualScheduler{}
	ctrl := playback.NewController(set, render.NewRaster(32, nil), playback.WithScheduler(sched))
	notices := newRecorder()
	session := NewSession(set, ctrl, export.NewCoordinator(export.NewMemorySink()),
		WithNotifier(notices),
		WithLogger(logging.Discard()),
	)
	t.Cleanup(session.Close)

	var mu sync.Mutex
	var renders []playback.RenderEvent
	session.OnRender(func(ev playback.RenderEvent) {
		mu.Lock()
		renders = append(renders, ev)
		mu.Unlock()
	})

	if _, err := session.OnLoad(context.Background(), []frames.Entry{pngEntry(t, "01.png", 8, 8), pngEntry(t, "02.png", 8, 8)}); err != nil {
		t.Fatal(err)
	}
	if err := session.OnTogglePlay(); err != nil {
		t.Fatal(err)
	}
	close(gate.release)
	notices.waitFor(t, "Loaded")

	mu.Lock()
	got := len(renders)
	mu.Unlock()
	if got != 0 {
		t.Errorf("renders = %d, want none outside the tick stream", got)
	}

	sched.Tick(1)
	mu.Lock()
	defer mu.Unlock()
	if len(renders) != 1 || renders[0].Index != 1 {
		t.Errorf("renders = %+v, want one tick render of frame 1", renders)
	}
}
