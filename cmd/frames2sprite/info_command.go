package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/frames2sprite/internal/engine"
	"github.com/ivlev/frames2sprite/internal/frames"
	"github.com/ivlev/frames2sprite/internal/sheet"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info [path]",
		Short: "Decode an upload and list its frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
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

			session, err := engine.Build(cfg, engine.Deps{
				Notifier: newNoticePrinter(cmd.ErrOrStderr()),
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			if err := loadInput(cmd.Context(), session, cfg, logger, path); err != nil {
				return err
			}

			snap := session.Snapshot()
			out := cmd.OutOrStdout()
			if snap.Len() == 0 {
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "State", "Size"},
				frameRows(snap),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d frames, %d decoded\n", snap.Len(), snap.Resolved())

			layout, err := sheet.Plan(snap)
			if errors.Is(err, frames.ErrEmptyInput) {
				return nil
			}
			if err != nil {
				return err
			}
			size := layout.Size()
			fmt.Fprintf(out, "Sprite sheet: %dx%d grid of %dx%d cells, %dx%d px\n",
				layout.Columns, layout.Rows, layout.CellWidth, layout.CellHeight, size.X, size.Y)
			return nil
		},
	}
}

func frameRows(snap frames.Snapshot) [][]string {
	rows := make([][]string, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		slot := snap.Slot(i)
		size := "-"
		if f, ok := snap.Frame(i); ok {
			size = fmt.Sprintf("%dx%d", f.Width, f.Height)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), slot.Name, slot.State.String(), size})
	}
	return rows
}
