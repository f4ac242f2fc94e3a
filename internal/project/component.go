package project

import (
	"fmt"
	"image"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/property"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

// Component is one clip on the timeline.
type Component struct {
	ID     string
	Kind   source.Kind
	Start  timecode.Time
	Length timecode.Time
	// Layer is a sort key; lower layers are drawn on top.
	Layer   uint
	Effects []effects.Effect

	// Path is the media reference (file, directory or URI). Text holds
	// the string of Text components.
	Path  string
	Text  string
	Props property.Bag

	// Base is the component's geometry before effects.
	Base effects.Geometry

	media    source.MediaSource
	mediaErr error
}

// End is Start+Length, saturating.
func (c *Component) End() timecode.Time {
	return c.Start.Add(c.Length)
}

// Active reports whether pos lies within [Start, End].
func (c *Component) Active(pos timecode.Time) bool {
	return c.Start <= pos && pos <= c.End()
}

// Progress maps pos to [0,1] across the component's extent. Zero-length
// components report 0 at their start and 1 afterwards.
func (c *Component) Progress(pos timecode.Time) float64 {
	if c.Length == 0 {
		if pos <= c.Start {
			return 0
		}
		return 1
	}
	p := float64(pos.Sub(c.Start)) / float64(c.Length)
	if p > 1 {
		return 1
	}
	return p
}

// Ref describes the media the component reads.
func (c *Component) Ref() source.Ref {
	return source.Ref{Kind: c.Kind, Path: c.Path, Text: c.Text, Props: c.Props}
}

// Media returns the loaded source, or nil when loading failed.
func (c *Component) Media() source.MediaSource {
	return c.media
}

// MediaError returns the last load failure.
func (c *Component) MediaError() error {
	return c.mediaErr
}

// Peek fetches the component's frame at the absolute timeline position.
func (c *Component) Peek(pos timecode.Time) (image.Image, error) {
	if c.media == nil {
		if c.mediaErr != nil {
			return nil, c.mediaErr
		}
		return nil, fmt.Errorf("%w: component %s has no media loaded", source.ErrUnavailable, c.ID)
	}
	img, ok := c.media.Peek(pos)
	if !ok || img == nil {
		return nil, fmt.Errorf("%w: component %s at %s", source.ErrUnavailable, c.ID, pos)
	}
	return img, nil
}

// InvalidateAndReload drops the current media handle and opens a new one
// from the component's reference. On failure the component keeps no media
// and the error is returned and remembered for Peek.
func (c *Component) InvalidateAndReload(opener source.Opener) error {
	c.closeMedia()
	if opener == nil {
		c.mediaErr = fmt.Errorf("%w: no media opener configured", source.ErrUnavailable)
		return c.mediaErr
	}
	m, err := opener.Open(c.Ref())
	if err != nil {
		c.mediaErr = fmt.Errorf("load %s %s: %w", c.Kind, c.ID, err)
		return c.mediaErr
	}
	c.media, c.mediaErr = m, nil
	return nil
}

func (c *Component) closeMedia() error {
	if c.media == nil {
		return nil
	}
	err := c.media.Close()
	c.media = nil
	return err
}

// Clone copies the timeline data. The copy has no media attached.
func (c *Component) Clone() *Component {
	out := *c
	out.Props = c.Props.Clone()
	out.Effects = make([]effects.Effect, len(c.Effects))
	for i, e := range c.Effects {
		out.Effects[i] = e.Clone()
	}
	out.media, out.mediaErr = nil, nil
	return &out
}

// sourceChanged reports whether other reads different media than c.
func (c *Component) sourceChanged(other *Component) bool {
	if c.Kind != other.Kind || c.Path != other.Path || c.Text != other.Text {
		return true
	}
	if len(c.Props) != len(other.Props) {
		return true
	}
	for k, v := range c.Props {
		if !property.Equal(v, other.Props[k]) {
			return true
		}
	}
	return false
}
