package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/frames2sprite/internal/prompt"
)

func newPromptCommand(ctx *commandContext) *cobra.Command {
	var game string
	var list bool

	cmd := &cobra.Command{
		Use:   "prompt [animation]",
		Short: "Print the frame generation prompt for a catalog animation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				rows := make([][]string, 0, len(cfg.Prompt.Animations))
				for _, a := range cfg.Prompt.Animations {
					rows = append(rows, []string{a.Name, strconv.Itoa(a.Frames), prompt.Slug(a.Name)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Animation", "Frames", "Slug"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			name := cfg.Prompt.Animation
			if len(args) > 0 {
				name = args[0]
			}
			a, ok := cfg.FindAnimation(name)
			if !ok {
				names := make([]string, 0, len(cfg.Prompt.Animations))
				for _, a := range cfg.Prompt.Animations {
					names = append(names, a.Name)
				}
				return fmt.Errorf("unknown animation %q (available: %s)", name, strings.Join(names, ", "))
			}
			if !cmd.Flags().Changed("game") {
				game = cfg.Prompt.Game
			}

			fmt.Fprintln(out, prompt.Template(game, prompt.Animation{Name: a.Label(), Frames: a.Frames}))
			fmt.Fprintln(cmd.ErrOrStderr(), prompt.FramesNeeded(prompt.Animation{Name: a.Label(), Frames: a.Frames}))
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game title used in the prompt (overrides prompt.game)")
	cmd.Flags().BoolVar(&list, "list", false, "List the animation catalog")

	return cmd
}
