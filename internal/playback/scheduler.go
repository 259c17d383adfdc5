package playback

import (
	"sync"
	"time"
)

// Scheduler creates recurring tick tasks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Task is a handle on a recurring tick. Stop is idempotent.
type Task interface {
	Stop()
}

// TickerScheduler runs each task on its own goroutine driven by a time.Ticker.
// Calls to fn for one task never overlap.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	t := &tickerTask{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				fn()
			}
		}
	}()
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// ManualScheduler never fires on its own; callers drive ticks explicitly.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*ManualTask
}

// ManualTask is a task created by ManualScheduler.
type ManualTask struct {
	Interval time.Duration

	fn      func()
	mu      sync.Mutex
	stopped bool
}

func (m *ManualScheduler) Every(interval time.Duration, fn func()) Task {
	t := &ManualTask{Interval: interval, fn: fn}
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()
	return t
}

// Tasks returns every task created so far, oldest first.
func (m *ManualScheduler) Tasks() []*ManualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ManualTask, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Active returns the newest task that has not been stopped.
func (m *ManualScheduler) Active() *ManualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if !m.tasks[i].Stopped() {
			return m.tasks[i]
		}
	}
	return nil
}

// Tick fires the active task n times and reports how many ticks ran.
func (m *ManualScheduler) Tick(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		t := m.Active()
		if t == nil {
			break
		}
		t.Run()
		ran++
	}
	return ran
}

func (t *ManualTask) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *ManualTask) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Run invokes the tick function even if the task was stopped, which simulates
// a timer that fired while Stop was in progress.
func (t *ManualTask) Run() {
	t.fn()
}
