// Package video holds the export output sinks: destinations that receive
// composited frames in presentation order and are finalized once.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"

	"github.com/ivlev/compositor/internal/timecode"
)

// ErrSinkFailure marks a failed write or finalize. It is fatal to the
// export session.
var ErrSinkFailure = errors.New("frame sink failure")

// FrameSink receives frames with presentation timestamps in arrival order.
// Finalize signals end of stream.
type FrameSink interface {
	WriteFrame(img image.Image, pts timecode.Time) error
	Finalize() error
}

// EncoderSettings configures an FFmpegSink.
type EncoderSettings struct {
	Width   int
	Height  int
	FPS     float64
	Encoder string // libx264, h264_nvenc, h264_videotoolbox, ...
	Quality int
	Output  string
}

// FFmpegSink pipes raw RGBA frames into an ffmpeg process.
type FFmpegSink struct {
	settings EncoderSettings
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stderr   bytes.Buffer
	lastPTS  timecode.Time
	frames   int
	done     bool
}

// NewFFmpegSink starts ffmpeg. The process is killed if ctx is cancelled
// before Finalize.
func NewFFmpegSink(ctx context.Context, s EncoderSettings) (*FFmpegSink, error) {
	if s.Width <= 0 || s.Height <= 0 || s.FPS <= 0 {
		return nil, fmt.Errorf("%w: bad output format %dx%d@%v", ErrSinkFailure, s.Width, s.Height, s.FPS)
	}
	if s.Encoder == "" {
		s.Encoder = "libx264"
	}
	sink := &FFmpegSink{settings: s}
	sink.cmd = exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(s)...)
	sink.cmd.Stderr = &sink.stderr

	stdin, err := sink.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrSinkFailure, err)
	}
	sink.stdin = stdin
	if err := sink.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg start: %v", ErrSinkFailure, err)
	}
	return sink, nil
}

func buildFFmpegArgs(s EncoderSettings) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"-framerate", fmt.Sprintf("%g", s.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", s.Encoder,
	}
	args = append(args, qualityArgs(s.Encoder, s.Quality)...)
	return append(args, s.Output)
}

// qualityArgs maps the quality knob onto the encoder's own rate control.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// no -q:v on older VideoToolbox builds; quality is kbit/s / 100
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (s *FFmpegSink) WriteFrame(img image.Image, pts timecode.Time) error {
	if s.done {
		return fmt.Errorf("%w: write after finalize", ErrSinkFailure)
	}
	if s.frames > 0 && pts < s.lastPTS {
		return fmt.Errorf("%w: pts %s before %s", ErrSinkFailure, pts, s.lastPTS)
	}
	b := img.Bounds()
	if b.Dx() != s.settings.Width || b.Dy() != s.settings.Height {
		return fmt.Errorf("%w: frame %dx%d, want %dx%d", ErrSinkFailure, b.Dx(), b.Dy(), s.settings.Width, s.settings.Height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("%w: write frame at %s: %v%s", ErrSinkFailure, pts, err, s.stderrTail())
	}
	s.lastPTS = pts
	s.frames++
	return nil
}

// Finalize closes the stream and waits for ffmpeg to exit.
func (s *FFmpegSink) Finalize() error {
	if s.done {
		return fmt.Errorf("%w: already finalized", ErrSinkFailure)
	}
	s.done = true
	if err := s.stdin.Close(); err != nil {
		return fmt.Errorf("%w: close stdin: %v", ErrSinkFailure, err)
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("%w: ffmpeg: %v%s", ErrSinkFailure, err, s.stderrTail())
	}
	return nil
}

// Frames returns the number of frames written.
func (s *FFmpegSink) Frames() int { return s.frames }

func (s *FFmpegSink) stderrTail() string {
	out := strings.TrimSpace(s.stderr.String())
	if out == "" {
		return ""
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return "\n" + strings.Join(lines, "\n")
}

// writeRawRGBA writes tightly packed RGBA rows, converting img when its
// layout does not already match.
func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
