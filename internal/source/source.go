// Package source adapts decoding backends to the MediaSource contract the
// compositor consumes: given a timeline position, produce a raster or report
// that none is available.
package source

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/compositor/internal/property"
	"github.com/ivlev/compositor/internal/timecode"
)

// ErrUnavailable marks media that cannot be opened, seeked or decoded.
var ErrUnavailable = errors.New("media unavailable")

// MediaSource yields decoded frames. Implementations never panic; Peek
// returns false on any failure or when ts is out of range.
type MediaSource interface {
	Duration() timecode.Time
	Peek(ts timecode.Time) (image.Image, bool)
	Close() error
}

// Kind is the component variant a source serves.
type Kind int

const (
	KindVideo Kind = iota
	KindImage
	KindText
	KindSound
)

var kindNames = map[Kind]string{
	KindVideo: "Video",
	KindImage: "Image",
	KindText:  "Text",
	KindSound: "Sound",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the component_type spellings of project documents.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown component type %q", s)
}

// Ref identifies the media behind a component.
type Ref struct {
	Kind  Kind
	Path  string
	Text  string
	Props property.Bag
}

// Opener creates a MediaSource for a reference.
type Opener interface {
	Open(ref Ref) (MediaSource, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ref Ref) (MediaSource, error)

func (f OpenerFunc) Open(ref Ref) (MediaSource, error) { return f(ref) }

// Static serves one image for every timestamp.
type Static struct {
	Image  image.Image
	Length timecode.Time
}

func (s *Static) Duration() timecode.Time {
	if s.Length == 0 {
		return timecode.Max
	}
	return s.Length
}

func (s *Static) Peek(ts timecode.Time) (image.Image, bool) {
	if s.Image == nil || ts > s.Duration() {
		return nil, false
	}
	return s.Image, true
}

func (s *Static) Close() error { return nil }
