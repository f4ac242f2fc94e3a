package source

import (
	"fmt"
	"image"

	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

// SoundSource carries an audio file. It never produces a raster; playback
// is triggered by the export pipeline through the audio package.
type SoundSource struct {
	Path     string
	duration timecode.Time
}

func NewSoundSource(path string) (*SoundSource, error) {
	info, err := system.ProbeMedia(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &SoundSource{Path: path, duration: timecode.FromSeconds(info.Duration)}, nil
}

func (s *SoundSource) Duration() timecode.Time { return s.duration }

func (s *SoundSource) Peek(timecode.Time) (image.Image, bool) { return nil, false }

func (s *SoundSource) Close() error { return nil }
