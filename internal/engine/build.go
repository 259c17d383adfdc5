package engine

import (
	"fmt"
	"log/slog"

	"github.com/ivlev/frames2sprite/internal/config"
	"github.com/ivlev/frames2sprite/internal/export"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/playback"
	"github.com/ivlev/frames2sprite/internal/render"
	"github.com/ivlev/frames2sprite/internal/sheet"
	"github.com/ivlev/frames2sprite/internal/system"
)

// Deps are the collaborators a Session cannot derive from config.
type Deps struct {
	Sink      export.Sink
	Surface   render.Surface
	Scheduler playback.Scheduler
	Notifier  Notifier
	Logger    *slog.Logger
}

// Build assembles a Session from configuration. A nil Surface gets a Raster
// sized by preview.canvas_size.
func Build(cfg config.Config, deps Deps) (*Session, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	surface := deps.Surface
	if surface == nil {
		scaler, err := render.ParseScaler(cfg.Preview.Scaler)
		if err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		surface = render.NewRaster(cfg.Preview.CanvasSize, scaler)
	}

	index, err := sheet.ParseFormat(cfg.Export.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	sink := deps.Sink
	if sink == nil {
		sink = export.NewDirSink(cfg.Export.Dir)
	}

	set := frames.NewSet(
		frames.WithWorkers(system.Workers(cfg.Decode.Workers)),
		frames.WithLogger(logger.With("component", "frames")),
	)
	ctrl := playback.NewController(set, surface,
		playback.WithScheduler(deps.Scheduler),
		playback.WithFPS(cfg.Playback.FPS),
		playback.WithLoop(cfg.Playback.Loop),
		playback.WithLogger(logger.With("component", "playback")),
	)
	exporter := export.NewCoordinator(sink,
		export.WithWorkers(system.Workers(cfg.Export.Workers)),
		export.WithCompression(cfg.PNGCompression()),
		export.WithSheetIndex(index),
		export.WithLogger(logger.With("component", "export")),
	)

	label := cfg.Prompt.Animation
	if a, ok := cfg.FindAnimation(label); ok {
		label = a.Label()
	}
	return NewSession(set, ctrl, exporter,
		WithNotifier(deps.Notifier),
		WithLogger(logger.With("component", "session")),
		WithAnimation(label),
	), nil
}
