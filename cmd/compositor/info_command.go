package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var skipMedia bool

	cmd := &cobra.Command{
		Use:   "info [project]",
		Short: "Show the canvas, components and fingerprint of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.projectArg(args)
			if err != nil {
				return err
			}
			doc, err := document.ReadFile(path)
			if err != nil {
				return err
			}
			fingerprint, err := document.Fingerprint(doc)
			if err != nil {
				return err
			}

			var p *project.Project
			if skipMedia {
				p, err = doc.Materialize(project.WithLogger(ctx.log()), project.WithDeferredLoad())
			} else {
				p, err = ctx.loadProject(cmd.Context(), path)
			}
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:     %s\n", path)
			fmt.Fprintf(out, "Canvas:      %dx%d\n", p.Width, p.Height)
			fmt.Fprintf(out, "Length:      %s (effective %s)\n", p.Length, p.EffectiveLength())
			fmt.Fprintf(out, "Fingerprint: %s\n", fingerprint)
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Type", "Start", "End", "Layer", "Source", "Effects", "Media"},
				componentRows(p, !skipMedia),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMedia, "no-media", false, "Do not open component media")
	return cmd
}

func componentRows(p *project.Project, withMedia bool) [][]string {
	rows := make([][]string, 0, len(p.Components()))
	for _, c := range p.Components() {
		src := c.Path
		if c.Kind == source.KindText {
			src = strconv.Quote(truncate(c.Text, 24))
		}
		effectNames := make([]string, len(c.Effects))
		for i, e := range c.Effects {
			effectNames[i] = e.Type.String()
		}
		media := "-"
		if withMedia {
			media = mediaStatus(c)
		}
		rows = append(rows, []string{
			c.ID,
			c.Kind.String(),
			c.Start.String(),
			c.End().String(),
			strconv.FormatUint(uint64(c.Layer), 10),
			src,
			strings.Join(effectNames, ", "),
			media,
		})
	}
	return rows
}

func mediaStatus(c *project.Component) string {
	if err := c.MediaError(); err != nil {
		return "unavailable"
	}
	m := c.Media()
	if m == nil {
		return "-"
	}
	if d := m.Duration(); d != 0 && d != timecode.Max {
		return "ok " + d.String()
	}
	return "ok"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
