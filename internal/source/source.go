package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/frames2sprite/internal/frames"
)

// Source supplies the raw entries of one upload, in frame order.
type Source interface {
	Entries(ctx context.Context) ([]frames.Entry, error)
	String() string
}

// Options configures Open.
type Options struct {
	DPI     int // PDF render resolution
	Workers int // concurrent PDF page renders
	Logger  *slog.Logger
}

// Open picks a source for path: a directory lists its files, a .pdf renders
// one frame per page, anything else is a single-file upload.
func Open(path string, opts Options) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch {
	case fi.IsDir():
		return &DirSource{Path: path, Logger: opts.Logger}, nil
	case strings.EqualFold(filepath.Ext(path), ".pdf"):
		return NewPDFSource(path, opts), nil
	default:
		return &FileSource{Path: path}, nil
	}
}
