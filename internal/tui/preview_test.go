package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/frames2sprite/internal/config"
	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/export"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/logging"
	"github.com/ivlev/frames2sprite/internal/playback"
	"github.com/ivlev/frames2sprite/internal/render"
)

type fixture struct {
	preview Preview
	session *engine.Session
	raster  *render.Raster
	sink    *export.MemorySink
}

func newFixture(t *testing.T, frameCount int) *fixture {
	t.Helper()
	cfg := config.Defaults()
	cfg.Preview.CanvasSize = 64

	raster := render.NewRaster(cfg.Preview.CanvasSize, nil)
	bridge := NewBridge()
	sink := export.NewMemorySink()
	session, err := engine.Build(cfg, engine.Deps{
		Sink:      sink,
		Surface:   raster,
		Scheduler: &playback.ManualScheduler{},
		Notifier:  bridge,
		Logger:    logging.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	session.OnRender(bridge.Rendered)
	t.Cleanup(session.Close)

	if frameCount > 0 {
		var entries []frames.Entry
		for i := 0; i < frameCount; i++ {
			entries = append(entries, pngEntry(t, fmt.Sprintf("%02d.png", i)))
		}
		if _, err := session.OnLoad(context.Background(), entries); err != nil {
			t.Fatal(err)
		}
		if err := session.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	labels := []string{"Idle (4 frames)", "Walk Cycle (8 frames)"}
	p := NewPreview(session, raster, bridge, cfg.Preview.CanvasSize, WithAnimations(labels, "Idle (4 frames)"))
	return &fixture{preview: p, session: session, raster: raster, sink: sink}
}

func pngEntry(t *testing.T, name string) frames.Entry {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return frames.Entry{Name: name, Data: buf.Bytes()}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var m tea.Model
		m, cmd = f.preview.Update(keyMsg(k))
		f.preview = m.(Preview)
	}
	return cmd
}

func TestWindowSizeResizesCanvas(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{40, 30, 38},  // width bound
		{200, 20, 26}, // height bound: 2 * (20 - 7)
		{300, 100, 64},
		{5, 5, minCanvas},
	}
	for _, tt := range tests {
		f := newFixture(t, 0)
		m, _ := f.preview.Update(tea.WindowSizeMsg{Width: tt.w, Height: tt.h})
		f.preview = m.(Preview)
		if got := f.raster.Size(); got != tt.want {
			t.Errorf("%dx%d: canvas = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	f := newFixture(t, 3)
	f.press(" ")
	if !f.session.State().Playback.Playing {
		t.Fatal("space should start playback")
	}
	f.press(" ")
	if f.session.State().Playback.Playing {
		t.Fatal("second space should stop playback")
	}
}

func TestRateKeysRespectSliderBounds(t *testing.T) {
	f := newFixture(t, 1)
	f.press("+", "+", "=")
	if got := f.session.State().Playback.FPS; got != playback.DefaultFPS+3 {
		t.Errorf("fps = %d, want %d", got, playback.DefaultFPS+3)
	}
	for i := 0; i < 100; i++ {
		f.press("-")
	}
	if got := f.session.State().Playback.FPS; got != playback.MinUIFPS {
		t.Errorf("fps = %d, want %d", got, playback.MinUIFPS)
	}
	for i := 0; i < 100; i++ {
		f.press("+")
	}
	if got := f.session.State().Playback.FPS; got != playback.MaxUIFPS {
		t.Errorf("fps = %d, want %d", got, playback.MaxUIFPS)
	}
}

func TestFrameSelectionKeys(t *testing.T) {
	f := newFixture(t, 4)

	f.press("3")
	if got := f.session.State().Playback.Cursor; got != 2 {
		t.Errorf("after 3: cursor = %d, want 2", got)
	}
	f.press("right", "right")
	if got := f.session.State().Playback.Cursor; got != 0 {
		t.Errorf("right should wrap: cursor = %d, want 0", got)
	}
	f.press("left")
	if got := f.session.State().Playback.Cursor; got != 3 {
		t.Errorf("left should wrap: cursor = %d, want 3", got)
	}

	f.press(" ", "1")
	st := f.session.State().Playback
	if st.Playing || st.Cursor != 0 {
		t.Errorf("selecting a frame should stop playback: %+v", st)
	}

	f.press("9")
	if got := f.session.State().Playback.Cursor; got != 0 {
		t.Errorf("out-of-range digit moved the cursor to %d", got)
	}
}

func TestLoopKey(t *testing.T) {
	f := newFixture(t, 1)
	f.press("l")
	if f.session.State().Playback.Loop {
		t.Error("l should turn loop off")
	}
}

func TestAnimationKeyCyclesCatalog(t *testing.T) {
	f := newFixture(t, 1)
	f.press("a")
	if got := f.session.Slug(); got != "walk_cycle" {
		t.Errorf("slug = %q, want walk_cycle", got)
	}
	f.press("a")
	if got := f.session.Slug(); got != "idle" {
		t.Errorf("slug = %q, want idle", got)
	}
}

func TestExportKeysRunCommands(t *testing.T) {
	f := newFixture(t, 2)
	f.press("a")

	cmd := f.press("e")
	if cmd == nil {
		t.Fatal("export should return a command")
	}
	cmd()
	if _, ok := f.sink.File("walk_cycle_frame_2.png"); !ok {
		t.Errorf("frame export missing, have %v", f.sink.Names())
	}

	f.press("s")()
	if _, ok := f.sink.File("walk_cycle_spritesheet.png"); !ok {
		t.Errorf("sheet export missing, have %v", f.sink.Names())
	}

	f.press("g")()
	if n := len(f.sink.Names()); n != 3 {
		t.Errorf("gif key produced output: %v", f.sink.Names())
	}
}

func TestNoticeShownInView(t *testing.T) {
	f := newFixture(t, 0)
	m, _ := f.preview.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	f.preview = m.(Preview)

	f.press(" ")
	// the notice travels through the bridge
	msg := f.preview.Init()()
	m, cmd := f.preview.Update(msg)
	f.preview = m.(Preview)
	if cmd == nil {
		t.Error("model should keep listening on the bridge")
	}

	view := f.preview.View()
	if !strings.Contains(view, "Please upload animation frames first") {
		t.Errorf("view missing notice:\n%s", view)
	}
	if !strings.Contains(view, "No frames loaded") {
		t.Errorf("view missing subheader:\n%s", view)
	}
	if !errors.Is(f.preview.notice.Err, frames.ErrEmptyInput) {
		t.Errorf("notice err = %v", f.preview.notice.Err)
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t, 0)
	cmd := f.press("q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRenderCanvasDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(4, 2, color.RGBA{B: 255, A: 255})

	out := renderCanvas(img)
	lines := strings.Split(out, "\n")
	if len(lines) != canvasLines(3) {
		t.Fatalf("lines = %d, want %d", len(lines), canvasLines(3))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 5 {
			t.Errorf("line %d width = %d, want 5", i, w)
		}
	}
	if !strings.Contains(lines[0], upperHalf) || !strings.Contains(lines[1], upperHalf) {
		t.Errorf("expected half blocks for opaque pixels: %q", out)
	}
	if renderCanvas(image.NewRGBA(image.Rectangle{})) != "" {
		t.Error("empty image should render nothing")
	}
}
