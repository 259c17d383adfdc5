package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/playback"
)

type noticeMsg engine.Notice

type renderMsg playback.RenderEvent

const (
	noticeBuffer  = 64
	renderBuffer  = 256
	noticeTimeout = 2 * time.Second
)

// Bridge carries session notices and render events from engine goroutines
// into the bubbletea event loop. Notices and renders use separate channels:
// a render may be dropped since the next one repaints the whole canvas, a
// notice waits up to noticeTimeout for room.
type Bridge struct {
	notices chan tea.Msg
	renders chan tea.Msg
	timeout time.Duration
}

func NewBridge() *Bridge {
	return &Bridge{
		notices: make(chan tea.Msg, noticeBuffer),
		renders: make(chan tea.Msg, renderBuffer),
		timeout: noticeTimeout,
	}
}

// Notify implements engine.Notifier. It gives up after the timeout so a
// closed UI never blocks decoding for long.
func (b *Bridge) Notify(n engine.Notice) {
	select {
	case b.notices <- noticeMsg(n):
		return
	default:
	}
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case b.notices <- noticeMsg(n):
	case <-timer.C:
	}
}

// Rendered is registered with Session.OnRender. It never blocks.
func (b *Bridge) Rendered(ev playback.RenderEvent) {
	select {
	case b.renders <- renderMsg(ev):
	default:
	}
}

// wait delivers the next message, notices first.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.notices:
			return msg
		default:
		}
		select {
		case msg := <-b.notices:
			return msg
		case msg := <-b.renders:
			return msg
		}
	}
}
