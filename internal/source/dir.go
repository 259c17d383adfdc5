package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ivlev/frames2sprite/internal/frames"
)

// DirSource reads every regular file of a directory, ordered by name with a
// locale-aware collation. Filtering non-images is left to the FrameSet.
type DirSource struct {
	Path   string
	Logger *slog.Logger
}

func (d *DirSource) String() string { return d.Path }

func (d *DirSource) Entries(ctx context.Context) ([]frames.Entry, error) {
	dirEntries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	SortNames(names)

	entries := make([]frames.Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(d.Path, name))
		if err != nil {
			if d.Logger != nil {
				d.Logger.Warn("skipping unreadable file", "path", filepath.Join(d.Path, name), "error", err)
			}
			continue
		}
		entries = append(entries, frames.Entry{Name: name, Data: data})
	}
	return entries, nil
}

// SortNames orders file names the way a file picker lists them.
func SortNames(names []string) {
	collate.New(language.Und).SortStrings(names)
}

// FileSource is a single-file upload.
type FileSource struct {
	Path string
}

func (f *FileSource) String() string { return f.Path }

func (f *FileSource) Entries(ctx context.Context) ([]frames.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return []frames.Entry{{Name: filepath.Base(f.Path), Data: data}}, nil
}
