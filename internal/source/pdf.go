package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frames2sprite/internal/frames"
)

const defaultDPI = 150

// PDFSource renders every page of a storyboard PDF to a PNG entry.
type PDFSource struct {
	path    string
	dpi     float64
	workers int
	logger  *slog.Logger
}

func NewPDFSource(path string, opts Options) *PDFSource {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFSource{path: path, dpi: float64(dpi), workers: workers, logger: logger}
}

func (p *PDFSource) String() string { return p.path }

// PageCount opens the document and reports its number of pages.
func (p *PDFSource) PageCount() (int, error) {
	doc, err := fitz.New(p.path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Entries renders pages concurrently. A fitz document is not safe for
// concurrent use, so each page render opens its own handle.
func (p *PDFSource) Entries(ctx context.Context) ([]frames.Entry, error) {
	n, err := p.PageCount()
	if err != nil {
		return nil, err
	}
	p.logger.Debug("rendering pdf pages", "path", p.path, "pages", n, "dpi", p.dpi)

	entries := make([]frames.Entry, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := p.renderPage(i)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			entries[i] = frames.Entry{Name: PageName(i), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PDFSource) renderPage(i int) ([]byte, error) {
	doc, err := fitz.New(p.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.ImagePNG(i, p.dpi)
}

// PageName is the entry name of page i (zero-based). Names sort in page order.
func PageName(i int) string {
	return fmt.Sprintf("page_%03d.png", i+1)
}
