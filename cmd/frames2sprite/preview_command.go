package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ivlev/frames2sprite/internal/config"
	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/logging"
	"github.com/ivlev/frames2sprite/internal/render"
	"github.com/ivlev/frames2sprite/internal/system"
	"github.com/ivlev/frames2sprite/internal/tui"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		animation string
		fps       int
		noLoop    bool
	)

	cmd := &cobra.Command{
		Use:   "preview [path]",
		Short: "Play frames back in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
				return errors.New("preview needs an interactive terminal; use export or info instead")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("animation") {
				cfg.Prompt.Animation = animation
			}
			if flags.Changed("fps") {
				cfg.Playback.FPS = fps
			}
			if noLoop {
				cfg.Playback.Loop = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			path, err := resolveInput(args)
			if err != nil {
				return err
			}

			// the alt screen owns stdout; logs only go to a file
			logger := logging.Discard()
			if cfg.Logging.File != "" {
				l, closer, err := ctx.logger(cfg, nil)
				if err != nil {
					return err
				}
				defer closer.Close()
				logger = l
			}
			system.InitResourceLimits(logger)

			scaler, err := render.ParseScaler(cfg.Preview.Scaler)
			if err != nil {
				return err
			}
			raster := render.NewRaster(cfg.Preview.CanvasSize, scaler)
			bridge := tui.NewBridge()
			session, err := engine.Build(cfg, engine.Deps{
				Surface:  raster,
				Notifier: bridge,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer session.Close()
			session.OnRender(bridge.Rendered)

			runCtx := cmd.Context()
			go func() {
				if err := loadInput(runCtx, session, cfg, logger, path); err != nil && !errors.Is(err, runCtx.Err()) {
					bridge.Notify(engine.Notice{
						Level:   engine.LevelError,
						Message: fmt.Sprintf("Could not load %s: %v", path, err),
						Err:     err,
					})
				}
			}()

			labels, current := catalogLabels(cfg)
			model := tui.NewPreview(session, raster, bridge, cfg.Preview.CanvasSize,
				tui.WithAnimations(labels, current),
				tui.WithContext(runCtx),
			)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("preview: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&animation, "animation", "a", "", "Catalog animation that names exported artifacts")
	cmd.Flags().IntVar(&fps, "fps", 0, "Initial playback rate (overrides playback.fps)")
	cmd.Flags().BoolVar(&noLoop, "no-loop", false, "Stop on the last frame instead of looping")

	return cmd
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// catalogLabels returns every catalog label and the label of the configured
// animation.
func catalogLabels(cfg config.Config) ([]string, string) {
	labels := make([]string, 0, len(cfg.Prompt.Animations))
	for _, a := range cfg.Prompt.Animations {
		labels = append(labels, a.Label())
	}
	current := cfg.Prompt.Animation
	if a, ok := cfg.FindAnimation(current); ok {
		current = a.Label()
	}
	return labels, current
}
