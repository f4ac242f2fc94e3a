package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/config"
	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/timecode"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	var preset string
	var length string
	var force bool

	cmd := &cobra.Command{
		Use:   "new <project>",
		Short: "Create an empty project document sized from the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			width, height := ctx.config.Render.Width, ctx.config.Render.Height
			if preset != "" {
				size, ok := config.Presets[preset]
				if !ok {
					return fmt.Errorf("unknown preset %q", preset)
				}
				width, height = size[0], size[1]
			}
			total, err := timecode.Parse(length)
			if err != nil {
				return fmt.Errorf("--length: %w", err)
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to replace it)", path)
				}
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create project directory: %w", err)
			}

			doc := &document.Document{Width: width, Height: height, Length: total.Millis(), Components: []document.Component{}}
			if err := document.SaveFile(doc, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %dx%d project %s\n", width, height, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Canvas preset: 16:9, 9:16 or 4:5")
	cmd.Flags().StringVar(&length, "length", "0", "Nominal project length")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
