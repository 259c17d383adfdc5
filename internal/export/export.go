package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/sheet"
	"github.com/ivlev/frames2sprite/internal/system"
)

// ErrUnsupportedCapability is returned for export formats this build cannot
// produce.
var ErrUnsupportedCapability = errors.New("animated export is not supported")

const defaultSlug = "animation"

// FrameFileName is the artifact name of frame i (zero-based).
func FrameFileName(slug string, i int) string {
	return fmt.Sprintf("%s_frame_%d.png", orDefault(slug), i+1)
}

// SheetFileName is the artifact name of the packed sheet.
func SheetFileName(slug string) string {
	return orDefault(slug) + "_spritesheet.png"
}

// IndexFileName is the artifact name of the sheet index in format f.
func IndexFileName(slug string, f sheet.Format) string {
	return orDefault(slug) + "_spritesheet." + f.Ext()
}

func orDefault(slug string) string {
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// Report lists what an export produced.
type Report struct {
	Written []string
	Skipped []int // indexes of frames that were not resolved
}

// Coordinator turns FrameSet snapshots into artifacts on a Sink.
type Coordinator struct {
	sink    Sink
	workers int
	encoder *png.Encoder
	index   sheet.Format
	logger  *slog.Logger
}

type Option func(*Coordinator)

// WithWorkers bounds the number of frames encoded concurrently.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCompression sets the PNG compression level.
func WithCompression(level png.CompressionLevel) Option {
	return func(c *Coordinator) { c.encoder.CompressionLevel = level }
}

// WithSheetIndex writes a sheet index next to every sprite sheet.
func WithSheetIndex(f sheet.Format) Option {
	return func(c *Coordinator) { c.index = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCoordinator(sink Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		sink:    sink,
		workers: 4,
		encoder: &png.Encoder{CompressionLevel: png.DefaultCompression, BufferPool: &encoderPool{}},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExportFrames saves every resolved frame of snap as its own PNG at native
// resolution. Unresolved frames are skipped. Frames are encoded concurrently
// and saved in index order. A snapshot with no resolved frame is empty input.
func (c *Coordinator) ExportFrames(ctx context.Context, snap frames.Snapshot, slug string) (Report, error) {
	n := snap.Len()
	if snap.Resolved() == 0 {
		return Report{}, frames.ErrEmptyInput
	}

	var rep Report
	encoded := make([][]byte, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		f, ok := snap.Frame(i)
		if !ok {
			rep.Skipped = append(rep.Skipped, i)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rgba := system.ToRGBA(f.Image)
			defer system.PutImage(rgba)
			data, err := c.encode(rgba)
			if err != nil {
				return fmt.Errorf("encode frame %d: %w", i+1, err)
			}
			encoded[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	unlock, err := c.lock(ctx)
	if err != nil {
		return rep, err
	}
	defer unlock()

	for i, data := range encoded {
		if data == nil {
			continue
		}
		name := FrameFileName(slug, i)
		if err := c.sink.Save(ctx, name, data); err != nil {
			return rep, fmt.Errorf("save %s: %w", name, err)
		}
		rep.Written = append(rep.Written, name)
	}
	c.logger.Info("frames exported",
		"batch", snap.Batch(),
		"written", len(rep.Written),
		"skipped", len(rep.Skipped),
	)
	return rep, nil
}

// ExportSheet packs snap into one sprite sheet PNG, plus an index file when
// one is configured.
func (c *Coordinator) ExportSheet(ctx context.Context, snap frames.Snapshot, slug string) (Report, error) {
	s, err := sheet.Pack(snap)
	if err != nil {
		return Report{}, err
	}
	var rep Report
	for i := 0; i < snap.Len(); i++ {
		if _, ok := snap.Frame(i); !ok {
			rep.Skipped = append(rep.Skipped, i)
		}
	}

	data, err := c.encode(s.Image)
	if err != nil {
		return rep, fmt.Errorf("encode sprite sheet: %w", err)
	}
	name := SheetFileName(slug)

	var index []byte
	if c.index != sheet.FormatNone {
		index, err = s.Index(name).Marshal(c.index)
		if err != nil {
			return rep, fmt.Errorf("encode sheet index: %w", err)
		}
	}

	unlock, err := c.lock(ctx)
	if err != nil {
		return rep, err
	}
	defer unlock()

	if err := c.sink.Save(ctx, name, data); err != nil {
		return rep, fmt.Errorf("save %s: %w", name, err)
	}
	rep.Written = append(rep.Written, name)

	if index != nil {
		indexName := IndexFileName(slug, c.index)
		if err := c.sink.Save(ctx, indexName, index); err != nil {
			return rep, fmt.Errorf("save %s: %w", indexName, err)
		}
		rep.Written = append(rep.Written, indexName)
	}

	c.logger.Info("sprite sheet exported",
		"batch", snap.Batch(),
		"file", name,
		"columns", s.Layout.Columns,
		"rows", s.Layout.Rows,
	)
	return rep, nil
}

// ExportAnimated would encode snap as an animated image. No encoder is
// available, so it always fails once input is present.
func (c *Coordinator) ExportAnimated(ctx context.Context, snap frames.Snapshot, slug string) error {
	if snap.Len() == 0 {
		return frames.ErrEmptyInput
	}
	return ErrUnsupportedCapability
}

func (c *Coordinator) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Coordinator) lock(ctx context.Context) (func(), error) {
	l, ok := c.sink.(Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := l.Lock(ctx)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := unlock(); err != nil {
			c.logger.Warn("release export lock", "error", err)
		}
	}, nil
}

type encoderPool struct {
	pool sync.Pool
}

func (p *encoderPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *encoderPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
