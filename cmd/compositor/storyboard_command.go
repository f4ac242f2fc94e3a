package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/config"
	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/storyboard"
	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

type storyboardOptions struct {
	output       string
	preset       string
	pageDuration string
	fade         string
	focus        bool
	audio        string
	audioSync    bool
	dpi          int
}

func newStoryboardCommand(ctx *commandContext) *cobra.Command {
	opts := &storyboardOptions{}

	cmd := &cobra.Command{
		Use:   "storyboard <pdf|image|dir>",
		Short: "Generate a slideshow project from a PDF or a folder of images",
		Long: "Generate a slideshow project: one image component per page, crossfades between\n" +
			"pages and, with --focus, a camera path that zooms over the content blocks of each page.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoryboard(cmd, ctx, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Project file to write (default: project dir, named after the input)")
	f.StringVar(&opts.preset, "preset", "", "Canvas preset: 16:9, 9:16 or 4:5")
	f.StringVar(&opts.pageDuration, "page-duration", "3s", "How long each page is shown")
	f.StringVar(&opts.fade, "fade", "0.5s", "Crossfade between pages")
	f.BoolVar(&opts.focus, "focus", false, "Pan and zoom over the detected content blocks")
	f.StringVar(&opts.audio, "audio", "", "Soundtrack to add as a Sound component")
	f.BoolVar(&opts.audioSync, "audio-sync", true, "Stretch pages to the soundtrack length")
	f.IntVar(&opts.dpi, "dpi", 0, "PDF rasterization DPI (default from config)")
	return cmd
}

func runStoryboard(cmd *cobra.Command, ctx *commandContext, opts *storyboardOptions, input string) error {
	cfg := ctx.config
	width, height := cfg.Render.Width, cfg.Render.Height
	if opts.preset != "" {
		size, ok := config.Presets[opts.preset]
		if !ok {
			return fmt.Errorf("unknown preset %q", opts.preset)
		}
		width, height = size[0], size[1]
	}
	pageDur, err := timecode.Parse(opts.pageDuration)
	if err != nil {
		return fmt.Errorf("--page-duration: %w", err)
	}
	fade, err := timecode.Parse(opts.fade)
	if err != nil {
		return fmt.Errorf("--fade: %w", err)
	}
	dpi := opts.dpi
	if dpi <= 0 {
		dpi = cfg.Media.DPI
	}

	target := strings.TrimSpace(opts.output)
	if target == "" {
		target = defaultOutputPath(cfg.Media.ProjectDir, input, ".yaml")
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	pages, err := storyboard.LoadPages(cmd.Context(), input, storyboard.LoadOptions{
		DPI:      dpi,
		Detect:   opts.focus,
		Detector: storyboard.DefaultDetector(),
		Workers:  cfg.Media.Workers,
	})
	if err != nil {
		return err
	}
	for i := range pages {
		pages[i].Path = relativeTo(filepath.Dir(absTarget), pages[i].Path)
	}

	sb := storyboard.DefaultOptions(width, height)
	sb.PageDuration = pageDur
	sb.Fade = fade
	sb.Focus = opts.focus
	sb.DPI = dpi
	if opts.audio != "" {
		sb.Audio = relativeTo(filepath.Dir(absTarget), opts.audio)
		if opts.audioSync {
			info, err := system.ProbeMedia(opts.audio)
			if err != nil {
				ctx.log().Warn("soundtrack length unknown, keeping page duration", "audio", opts.audio, "error", err)
			} else {
				sb.Total = timecode.FromSeconds(info.Duration)
				ctx.log().Info("page timing follows soundtrack", "audio", opts.audio, "length", sb.Total)
			}
		}
	}

	doc, err := storyboard.Build(pages, sb)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absTarget), 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	if err := document.SaveFile(doc, absTarget); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages (%s) to %s\n", len(pages), timecode.Time(doc.Length), target)
	return nil
}

// relativeTo rewrites path relative to base when possible, so projects can
// be moved together with their media.
func relativeTo(base, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return abs
	}
	return rel
}
