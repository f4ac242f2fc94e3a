package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/compositor"
	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var at string
	var output string

	cmd := &cobra.Command{
		Use:   "render [project]",
		Short: "Render a single frame to PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := timecode.Parse(at)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			path, err := ctx.projectArg(args)
			if err != nil {
				return err
			}
			p, err := ctx.loadProject(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer p.Close()

			target := strings.TrimSpace(output)
			if target == "" {
				target = defaultOutputPath(ctx.config.Export.OutputDir, path, ".png")
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			frame := compositor.Render(p, pos)
			defer system.PutImage(frame)

			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			if err := png.Encode(f, frame); err != nil {
				f.Close()
				return fmt.Errorf("encode %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s at %s to %s\n", filepath.Base(path), pos, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "0", "Timeline position (1500, 1.5s or 00:00:01.500)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path")
	return cmd
}
