package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/system"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir      string
		animation   string
		index       string
		compression string
		dpi         int
		withFrames  bool
		withSheet   bool
		withGIF     bool
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export frames and a sprite sheet without the preview",
		Long: "Load a directory of frames, a single image or a storyboard PDF and write the\n" +
			"selected artifacts. With no artifact flags, frames and the sprite sheet are\n" +
			"both exported.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.Export.Dir = outDir
			}
			if flags.Changed("animation") {
				cfg.Prompt.Animation = animation
			}
			if flags.Changed("index") {
				cfg.Export.SheetIndex = index
			}
			if flags.Changed("compression") {
				cfg.Export.Compression = compression
			}
			if flags.Changed("dpi") {
				cfg.Decode.PDFDPI = dpi
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !withFrames && !withSheet && !withGIF {
				withFrames, withSheet = true, true
			}

			path, err := resolveInput(args)
			if err != nil {
				return err
			}

			logger, closer, err := ctx.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()
			system.InitResourceLimits(logger)

			session, err := engine.Build(cfg, engine.Deps{
				Notifier: newNoticePrinter(cmd.ErrOrStderr()),
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			runCtx := cmd.Context()
			if err := loadInput(runCtx, session, cfg, logger, path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var written []string
			if withFrames {
				rep, err := session.OnExportFrames(runCtx)
				if err != nil && !reported(err) {
					return err
				}
				written = append(written, rep.Written...)
			}
			if withSheet {
				rep, err := session.OnExportSheet(runCtx)
				if err != nil && !reported(err) {
					return err
				}
				written = append(written, rep.Written...)
			}
			if withGIF {
				if err := session.OnExportAnimated(runCtx); err != nil && !reported(err) {
					return err
				}
			}

			for _, name := range written {
				fmt.Fprintln(out, filepath.Join(cfg.Export.Dir, name))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (overrides export.dir)")
	cmd.Flags().StringVarP(&animation, "animation", "a", "", "Catalog animation that names the artifacts")
	cmd.Flags().StringVar(&index, "index", "", "Sprite sheet index file: none, json or yaml")
	cmd.Flags().StringVar(&compression, "compression", "", "PNG compression: default, none, speed or best")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "PDF render resolution")
	cmd.Flags().BoolVar(&withFrames, "frames", false, "Export every frame as its own PNG")
	cmd.Flags().BoolVar(&withSheet, "sheet", false, "Export the packed sprite sheet")
	cmd.Flags().BoolVar(&withGIF, "gif", false, "Export an animated GIF (not available in this build)")

	return cmd
}
