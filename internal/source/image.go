package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/compositor/internal/timecode"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ImageSource serves a still image, or a directory of images played back as
// a sequence at FPS frames per second.
type ImageSource struct {
	paths []string
	fps   float64

	cachedIndex int
	cached      image.Image
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrUnavailable, dir)
	}
	return paths, nil
}

func NewImageSource(path string, fps float64) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	paths := []string{path}
	if fi.IsDir() {
		if paths, err = ListImages(path); err != nil {
			return nil, err
		}
	}
	if fps <= 0 {
		fps = 30
	}

	s := &ImageSource{paths: paths, fps: fps, cachedIndex: -1}
	// decode the first frame eagerly so broken files fail at load time
	if _, err := s.frame(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ImageSource) FrameCount() int {
	return len(s.paths)
}

func (s *ImageSource) Duration() timecode.Time {
	if len(s.paths) == 1 {
		return timecode.Max
	}
	return timecode.FromSeconds(float64(len(s.paths)) / s.fps)
}

func (s *ImageSource) Peek(ts timecode.Time) (image.Image, bool) {
	idx := 0
	if len(s.paths) > 1 {
		idx = int(math.Floor(ts.Seconds() * s.fps))
		if idx >= len(s.paths) {
			return nil, false
		}
	}
	img, err := s.frame(idx)
	if err != nil {
		return nil, false
	}
	return img, true
}

func (s *ImageSource) frame(index int) (image.Image, error) {
	if index == s.cachedIndex && s.cached != nil {
		return s.cached, nil
	}
	img, err := decodeFile(s.paths[index])
	if err != nil {
		return nil, err
	}
	s.cachedIndex, s.cached = index, img
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	s.cached = nil
	return nil
}
