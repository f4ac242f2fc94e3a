package source

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"

	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

// VideoSource decodes single frames with ffmpeg. Each Peek seeks and
// decodes synchronously; the last decoded frame is cached.
type VideoSource struct {
	path     string
	width    int
	height   int
	duration timecode.Time

	cachedAt timecode.Time
	cached   *image.RGBA
}

func NewVideoSource(path string) (*VideoSource, error) {
	info, err := system.ProbeMedia(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no video stream", ErrUnavailable, path)
	}
	return &VideoSource{
		path:     path,
		width:    info.Width,
		height:   info.Height,
		duration: timecode.FromSeconds(info.Duration),
	}, nil
}

func (v *VideoSource) Duration() timecode.Time { return v.duration }

func (v *VideoSource) Peek(ts timecode.Time) (image.Image, bool) {
	if ts > v.duration {
		return nil, false
	}
	if v.cached != nil && v.cachedAt == ts {
		return v.cached, true
	}
	img, err := v.decode(ts)
	if err != nil {
		return nil, false
	}
	v.cached, v.cachedAt = img, ts
	return img, true
}

func (v *VideoSource) decode(ts timecode.Time) (*image.RGBA, error) {
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", ts.Seconds()),
		"-i", v.path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode at %s: %v: %s", ts, err, stderr.String())
	}
	return rawToRGBA(out.Bytes(), v.width, v.height)
}

func rawToRGBA(raw []byte, w, h int) (*image.RGBA, error) {
	want := w * h * 4
	if len(raw) < want {
		return nil, fmt.Errorf("short frame: got %d bytes, want %d", len(raw), want)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, raw[:want])
	return img, nil
}

func (v *VideoSource) Close() error {
	v.cached = nil
	return nil
}
