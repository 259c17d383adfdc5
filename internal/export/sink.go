package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Sink receives finished artifacts. It is the download side of the tool:
// a directory on disk for the CLI, memory in tests.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) error
}

// Locker is implemented by sinks that must not receive two exports at once.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

const lockFileName = ".frames2sprite.lock"

// DirSink writes artifacts into a directory. Each file is written to a temp
// file first and renamed into place.
type DirSink struct {
	Dir  string
	Perm os.FileMode

	lockRetry time.Duration
}

// NewDirSink returns a sink for dir. The directory is created on first save.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir, Perm: 0o644, lockRetry: 50 * time.Millisecond}
}

func (d *DirSink) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(d.Dir, name), data, d.Perm)
}

// Lock takes an advisory file lock on the directory, waiting until it is free
// or ctx is done.
func (d *DirSink) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	retry := d.lockRetry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	fl := flock.New(filepath.Join(d.Dir, lockFileName))
	ok, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		return nil, fmt.Errorf("lock export dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock export dir: %s is busy", d.Dir)
	}
	return fl.Unlock, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemorySink keeps artifacts in memory in the order they were saved.
type MemorySink struct {
	mu    sync.Mutex
	names []string
	files map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

func (m *MemorySink) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		m.names = append(m.names, name)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Names returns saved artifact names in save order.
func (m *MemorySink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

// File returns the bytes saved under name.
func (m *MemorySink) File(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Sorted returns saved names in lexical order.
func (m *MemorySink) Sorted() []string {
	names := m.Names()
	sort.Strings(names)
	return names
}
