package video

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/ivlev/compositor/internal/timecode"
)

// ImageSequenceSink writes one PNG per frame into Dir, named by frame
// number, plus a frames.txt listing each file with its timestamp.
type ImageSequenceSink struct {
	Dir string

	index []string
	done  bool
}

func NewImageSequenceSink(dir string) (*ImageSequenceSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	return &ImageSequenceSink{Dir: dir}, nil
}

func (s *ImageSequenceSink) WriteFrame(img image.Image, pts timecode.Time) error {
	if s.done {
		return fmt.Errorf("%w: write after finalize", ErrSinkFailure)
	}
	name := fmt.Sprintf("frame_%06d.png", len(s.index))
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("%w: encode %s: %v", ErrSinkFailure, name, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	s.index = append(s.index, fmt.Sprintf("%s\t%s", name, pts))
	return nil
}

// Finalize writes the frame index.
func (s *ImageSequenceSink) Finalize() error {
	if s.done {
		return fmt.Errorf("%w: already finalized", ErrSinkFailure)
	}
	s.done = true
	f, err := os.Create(filepath.Join(s.Dir, "frames.txt"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	w := bufio.NewWriter(f)
	for _, line := range s.index {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	return nil
}

// Frames returns the number of frames written.
func (s *ImageSequenceSink) Frames() int { return len(s.index) }
