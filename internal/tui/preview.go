package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/playback"
	"github.com/ivlev/frames2sprite/internal/prompt"
	"github.com/ivlev/frames2sprite/internal/render"
)

const (
	headerLines = 2 // title + subheader
	footerLines = 3 // status bar + notification bar + help
	borderCells = 2 // canvas border, both axes
	chromeLines = headerLines + footerLines + borderCells
	minCanvas   = 8
)

// Preview is the Bubble Tea model of the interactive preview.
type Preview struct {
	session    *engine.Session
	raster     *render.Raster
	bridge     *Bridge
	ctx        context.Context
	maxCanvas  int
	animations []string // catalog labels, cycled with "a"
	animIdx    int

	width  int
	height int
	notice engine.Notice
}

type Option func(*Preview)

// WithAnimations sets the catalog labels the "a" key cycles through.
func WithAnimations(labels []string, current string) Option {
	return func(p *Preview) {
		p.animations = labels
		for i, l := range labels {
			if l == current || prompt.DisplayName(l) == prompt.DisplayName(current) {
				p.animIdx = i
			}
		}
	}
}

// WithContext bounds exports started from the preview.
func WithContext(ctx context.Context) Option {
	return func(p *Preview) { p.ctx = ctx }
}

// NewPreview creates the model. raster must be the session's surface and
// bridge its notifier and render observer.
func NewPreview(session *engine.Session, raster *render.Raster, bridge *Bridge, maxCanvas int, opts ...Option) Preview {
	p := Preview{
		session:   session,
		raster:    raster,
		bridge:    bridge,
		ctx:       context.Background(),
		maxCanvas: maxCanvas,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p Preview) Init() tea.Cmd {
	return p.bridge.wait()
}

func (p Preview) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.session.OnResize(p.canvasSize())
		return p, nil

	case noticeMsg:
		p.notice = engine.Notice(msg)
		return p, p.bridge.wait()

	case renderMsg:
		return p, p.bridge.wait()
	}
	return p, nil
}

// canvasSize is the largest square that fits the terminal, in pixels. A
// terminal line holds two pixel rows.
func (p Preview) canvasSize() int {
	size := min(p.width-borderCells, 2*(p.height-chromeLines), p.maxCanvas)
	return max(size, minCanvas)
}

func (p Preview) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		p.session.Close()
		return p, tea.Quit

	case " ":
		_ = p.session.OnTogglePlay()

	case "l":
		p.session.OnToggleLoop()

	case "+", "=":
		p.changeRate(1)

	case "-", "_":
		p.changeRate(-1)

	case "left":
		p.step(-1)

	case "right":
		p.step(1)

	case "e":
		return p, p.export(func(ctx context.Context) error {
			_, err := p.session.OnExportFrames(ctx)
			return err
		})

	case "s":
		return p, p.export(func(ctx context.Context) error {
			_, err := p.session.OnExportSheet(ctx)
			return err
		})

	case "g":
		return p, p.export(p.session.OnExportAnimated)

	case "a":
		if len(p.animations) > 0 {
			p.animIdx = (p.animIdx + 1) % len(p.animations)
			label := p.animations[p.animIdx]
			p.session.SetAnimation(label)
			p.notice = engine.Notice{Message: "Animation: " + label}
		}

	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			i := int(key[0] - '1')
			if key == "0" {
				i = 9
			}
			_ = p.session.OnSelectFrame(i)
		}
	}
	return p, nil
}

// changeRate nudges the rate within the slider bounds.
func (p Preview) changeRate(delta int) {
	fps := p.session.State().Playback.FPS + delta
	fps = min(max(fps, playback.MinUIFPS), playback.MaxUIFPS)
	_ = p.session.OnRateChange(fps)
}

func (p Preview) step(delta int) {
	st := p.session.State()
	if st.Frames == 0 {
		_ = p.session.OnSelectFrame(0)
		return
	}
	i := (st.Playback.Cursor + delta + st.Frames) % st.Frames
	_ = p.session.OnSelectFrame(i)
}

// export runs fn off the event loop; its outcome arrives as a notice.
func (p Preview) export(fn func(context.Context) error) tea.Cmd {
	ctx := p.ctx
	return func() tea.Msg {
		_ = fn(ctx)
		return nil
	}
}

func (p Preview) View() string {
	if p.width == 0 {
		return "\n  Loading preview...\n"
	}
	st := p.session.State()

	var b strings.Builder
	b.WriteString(p.renderHeader(st))
	b.WriteString("\n")
	b.WriteString(subheaderStyle.Render(p.renderSubheader(st)))
	b.WriteString("\n")
	b.WriteString(canvasBorderStyle.Render(renderCanvas(p.raster.Image())))
	b.WriteString("\n")
	b.WriteString(p.renderStatusBar(st))
	b.WriteString("\n")
	b.WriteString(p.renderNotificationBar())
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render("  space:play  l:loop  +/-:fps  ←/→/1-9:frame  a:animation  e:frames  s:sheet  g:gif  q:quit"))
	return b.String()
}

func (p Preview) renderHeader(st engine.State) string {
	title := headerStyle.Render("frames2sprite")
	right := ""
	if st.Animation != "" {
		right = subheaderStyle.Render(prompt.DisplayName(st.Animation))
	}
	gap := max(p.width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return title + strings.Repeat(" ", gap) + right
}

func (p Preview) renderSubheader(st engine.State) string {
	switch {
	case st.Frames == 0:
		return "No frames loaded"
	case !st.Settled:
		return fmt.Sprintf("Decoding %d/%d frames...", st.Resolved, st.Frames)
	case st.Resolved < st.Frames:
		return fmt.Sprintf("%d frames, %d failed", st.Frames, st.Frames-st.Resolved)
	default:
		return fmt.Sprintf("%d frames", st.Frames)
	}
}

func (p Preview) renderStatusBar(st engine.State) string {
	pb := st.Playback
	state := statusBarStyle.Render("■ stopped")
	if pb.Playing {
		state = playingStyle.Render("▶ playing")
	}
	loop := "Loop: OFF"
	if pb.Loop {
		loop = "Loop: ON"
	}
	frame := "-/-"
	if st.Frames > 0 {
		frame = fmt.Sprintf("%d/%d", pb.Cursor+1, st.Frames)
	}
	return fmt.Sprintf("  %s  %s  frame %s  %d fps  %s", state, statusBarStyle.Render("│"), frame, pb.FPS, loop)
}

func (p Preview) renderNotificationBar() string {
	if p.notice.Message == "" {
		return notificationBarStyle.Render("")
	}
	return noticeStyle(p.notice.Level).Render("  " + p.notice.Message)
}
