package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/audio"
	"github.com/ivlev/compositor/internal/engine"
	"github.com/ivlev/compositor/internal/video"
)

type exportOptions struct {
	output    string
	framesDir string
	fps       float64
	encoder   string
	quality   int
	audio     bool
	stats     bool
	noBar     bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export [project]",
		Short: "Export the whole timeline to a video file or PNG sequence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, ctx, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output video path")
	f.StringVar(&opts.framesDir, "frames-dir", "", "Write a PNG sequence to this directory instead of a video")
	f.Float64Var(&opts.fps, "fps", 0, "Frame rate (default from config)")
	f.StringVar(&opts.encoder, "encoder", "", "ffmpeg video encoder, or auto")
	f.IntVar(&opts.quality, "quality", 0, "Quality (0 = auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	f.BoolVar(&opts.audio, "audio", false, "Play Sound components through ffplay while exporting")
	f.BoolVar(&opts.stats, "stats", false, "Print a performance report and append it to the benchmark log")
	f.BoolVar(&opts.noBar, "no-progress", false, "Disable the progress bar")
	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, opts *exportOptions, args []string) error {
	cfg := ctx.config
	if opts.fps > 0 {
		cfg.Render.FPS = opts.fps
	}
	if opts.encoder != "" {
		cfg.Export.Encoder = opts.encoder
	}
	if opts.quality > 0 {
		cfg.Export.Quality = opts.quality
	}
	if opts.audio {
		cfg.Export.PlayAudio = true
	}
	if opts.stats {
		cfg.Export.ShowStats = true
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
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

	frames, delta := engine.FrameCount(p.EffectiveLength(), cfg.Render.FPS)
	var sink video.FrameSink
	var target string
	if dir := strings.TrimSpace(opts.framesDir); dir != "" {
		seq, err := video.NewImageSequenceSink(dir)
		if err != nil {
			return err
		}
		sink, target = seq, dir
	} else {
		cfg.ResolveEncoder()
		target = strings.TrimSpace(opts.output)
		if target == "" {
			target = defaultOutputPath(cfg.Export.OutputDir, path, ".mp4")
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		ff, err := video.NewFFmpegSink(cmd.Context(), video.EncoderSettings{
			Width:   p.Width,
			Height:  p.Height,
			FPS:     engine.FrameRate(delta),
			Encoder: cfg.Export.Encoder,
			Quality: cfg.Export.Quality,
			Output:  target,
		})
		if err != nil {
			return err
		}
		sink = ff
		ctx.log().Info("encoder selected", "encoder", cfg.Export.Encoder, "quality", cfg.Export.Quality)
	}

	sessionOpts := []engine.Option{engine.WithLogger(ctx.log())}
	if cfg.Export.PlayAudio {
		sessionOpts = append(sessionOpts, engine.WithPlayer(cmd.Context(), audio.NewFFPlay(ctx.log())))
	}
	session, err := engine.BeginExport(p, frames, delta, sink, sessionOpts...)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx.log().Info("export started",
		"project", path,
		"output", target,
		"frames", frames,
		"size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"fps", engine.FrameRate(delta))

	var onProgress func(engine.Progress)
	if !opts.noBar && frames > 0 {
		bar := progressbar.NewOptions(frames,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("export"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		onProgress = func(pr engine.Progress) {
			_ = bar.Set(pr.Frame)
		}
	}

	report, err := engine.Run(cmd.Context(), session, onProgress)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if cfg.Export.ShowStats {
		fmt.Fprint(out, report.String())
		if logPath := cfg.Export.BenchmarkLog; logPath != "" {
			if err := report.AppendTo(logPath, path); err != nil {
				ctx.log().Warn("benchmark log not written", "path", logPath, "error", err)
			}
		}
	}
	fmt.Fprintf(out, "Exported %d frames to %s\n", report.Frames, target)
	return nil
}
