package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ivlev/frames2sprite/internal/config"
	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/export"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/logging"
	"github.com/ivlev/frames2sprite/internal/source"
	"github.com/ivlev/frames2sprite/internal/system"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

// ensureConfig loads the config file once and applies the persistent logging
// flags on top of it. An explicit --config must exist; the default path may
// be missing.
func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if path != "" {
			if _, err := os.Stat(path); err != nil {
				c.configErr = fmt.Errorf("config: %w", err)
				return
			}
		} else {
			path = config.DefaultPath()
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(*c.logLevelFlag); v != "" {
			cfg.Logging.Level = v
		}
		if v := strings.TrimSpace(*c.logFormatFlag); v != "" {
			cfg.Logging.Format = v
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to logging.file when set, otherwise to w.
func (c *commandContext) logger(cfg config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}
	if opts.File == "" {
		opts.Output = w
	}
	return logging.New(opts)
}

// resolveInput returns the upload path: the first argument, or the newest PDF
// in the working directory.
func resolveInput(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	latest, err := system.FindLatest(".", ".pdf")
	if err != nil {
		return "", fmt.Errorf("no input given: pass a directory of frames, an image or a PDF (%w)", err)
	}
	return latest, nil
}

// loadInput reads path into session and waits for decoding to finish. An
// upload without images is reported through the notifier, not as an error.
func loadInput(ctx context.Context, session *engine.Session, cfg config.Config, logger *slog.Logger, path string) error {
	src, err := source.Open(path, source.Options{
		DPI:     cfg.Decode.PDFDPI,
		Workers: system.Workers(cfg.Decode.Workers),
		Logger:  logger.With("component", "source"),
	})
	if err != nil {
		return err
	}
	entries, err := src.Entries(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if _, err := session.OnLoad(ctx, entries); err != nil {
		if errors.Is(err, frames.ErrEmptyInput) {
			return nil
		}
		return err
	}
	return session.Wait(ctx)
}

// reported tells whether err was already shown to the user as a notice and
// should not fail the command.
func reported(err error) bool {
	return errors.Is(err, frames.ErrEmptyInput) ||
		errors.Is(err, frames.ErrDecodeFailure) ||
		errors.Is(err, export.ErrUnsupportedCapability)
}

// noticePrinter prints session notices, one per line.
type noticePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func newNoticePrinter(w io.Writer) *noticePrinter {
	return &noticePrinter{w: w}
}

func (p *noticePrinter) Notify(n engine.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s: %s\n", n.Level, n.Message)
}
