// Package storyboard turns a PDF or a folder of images into a slideshow
// project: one Image component per page, crossfades between pages and an
// optional camera path that pans and zooms over the content blocks
// found on each page.
package storyboard

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/timecode"
)

var ErrNoPages = errors.New("storyboard: no pages")

// Page is one slide source.
type Page struct {
	Path    string
	Index   int // PDF page number, -1 for image files
	Size    image.Point
	Regions []image.Rectangle
}

// Options controls the generated timeline.
type Options struct {
	Width  int
	Height int

	PageDuration timecode.Time
	// Total, when set, is split evenly across pages and overrides
	// PageDuration. Used to match a soundtrack.
	Total timecode.Time
	Fade  timecode.Time

	// Focus enables the camera path over each page's regions.
	Focus    bool
	Intro    timecode.Time // full view before the first region
	Outro    timecode.Time // full view after the last region
	MinDwell timecode.Time
	MaxDwell timecode.Time
	MaxZoom  float64
	Padding  float64 // share of the viewport a focused region may fill

	DPI   int
	Audio string
}

// DefaultOptions mirrors the classic slideshow settings: 3s pages, half a
// second of crossfade, camera moves of one to three seconds per region.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:        width,
		Height:       height,
		PageDuration: 3000,
		Fade:         500,
		Intro:        1000,
		Outro:        1000,
		MinDwell:     1000,
		MaxDwell:     3000,
		MaxZoom:      3,
		Padding:      0.9,
	}
}

// Build lays pages out back to back. Page i starts at i*PageDuration and
// overlaps the next page by Fade, during which the next page fades in on
// top of it.
func Build(pages []Page, opts Options) (*document.Document, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("storyboard: canvas %dx%d", opts.Width, opts.Height)
	}
	n := len(pages)
	pageDur := opts.PageDuration
	if opts.Total > 0 {
		pageDur = timecode.Time(opts.Total.Millis() / uint64(n))
	}
	if pageDur == 0 {
		return nil, fmt.Errorf("storyboard: page duration is zero")
	}
	fade := min(opts.Fade, pageDur/2)

	doc := &document.Document{
		Width:  opts.Width,
		Height: opts.Height,
		Length: pageDur.Mul(uint64(n)).Millis(),
	}
	for i, pg := range pages {
		if pg.Size.X <= 0 || pg.Size.Y <= 0 {
			return nil, fmt.Errorf("storyboard: page %d (%s) has no size", i+1, pg.Path)
		}
		length := pageDur
		if i < n-1 {
			length = length.Add(fade)
		}
		scale, origin := fit(pg.Size, opts.Width, opts.Height)

		c := document.Component{
			ID:            fmt.Sprintf("page-%03d", i+1),
			ComponentType: "Image",
			DataPath:      pg.Path,
			StartTime:     pageDur.Mul(uint64(i)).Millis(),
			Length:        length.Millis(),
			LayerIndex:    uint(n - 1 - i),
			Coordinate:    &[2]int{origin.X, origin.Y},
			Scale:         &[2]float64{scale, scale},
		}
		if pg.Index >= 0 {
			c.Properties = map[string]any{"page": pg.Index}
			if opts.DPI > 0 {
				c.Properties["dpi"] = opts.DPI
			}
		}
		if fade > 0 && i > 0 {
			c.Effects = append(c.Effects, fadeIn(fade, length))
		}
		if opts.Focus {
			c.Effects = append(c.Effects, camera(pg, scale, origin, length, opts)...)
		}
		doc.Components = append(doc.Components, c)
	}

	if opts.Audio != "" {
		doc.Components = append(doc.Components, document.Component{
			ID:            "soundtrack",
			ComponentType: "Sound",
			Entity:        opts.Audio,
			Length:        doc.Length,
			LayerIndex:    uint(n),
		})
	}
	return doc, nil
}

// fit scales size to fit inside the canvas and centres it.
func fit(size image.Point, width, height int) (float64, image.Point) {
	s := math.Min(float64(width)/float64(size.X), float64(height)/float64(size.Y))
	return s, image.Pt(
		int(math.Round((float64(width)-float64(size.X)*s)/2)),
		int(math.Round((float64(height)-float64(size.Y)*s)/2)),
	)
}

func fadeIn(fade, length timecode.Time) document.Effect {
	return document.Effect{
		EffectType: effects.Alpha.String(),
		Transition: effects.Linear.String(),
		StartValue: 0,
		EndValue:   255,
		Breakpoints: []document.Breakpoint{
			{Transition: effects.Linear.String(), Position: fraction(fade, length), Value: 255},
		},
	}
}

type keyframe struct {
	at   timecode.Time
	zoom float64
	dx   float64
	dy   float64
}

// camera builds the pan and zoom effects visiting each region in reading
// order: full view for Intro, then Dwell per region, then back to full
// view until the end.
func camera(pg Page, scale float64, origin image.Point, length timecode.Time, opts Options) []document.Effect {
	keys := plan(pg, scale, origin, length, opts)
	if len(keys) == 0 {
		return nil
	}
	ease := effects.EaseInOut.String()
	track := func(t effects.Type, rest float64, value func(keyframe) float64) document.Effect {
		e := document.Effect{EffectType: t.String(), Transition: ease, StartValue: rest, EndValue: rest}
		for _, k := range keys {
			e.Breakpoints = append(e.Breakpoints, document.Breakpoint{
				Transition: ease,
				Position:   fraction(k.at, length),
				Value:      value(k),
			})
		}
		return e
	}
	return []document.Effect{
		track(effects.ScaleX, 1, func(k keyframe) float64 { return k.zoom }),
		track(effects.ScaleY, 1, func(k keyframe) float64 { return k.zoom }),
		track(effects.CoordinateX, 0, func(k keyframe) float64 { return k.dx }),
		track(effects.CoordinateY, 0, func(k keyframe) float64 { return k.dy }),
	}
}

func plan(pg Page, scale float64, origin image.Point, length timecode.Time, opts Options) []keyframe {
	regions := pg.Regions
	if len(regions) == 0 {
		return nil
	}
	available := length.Sub(opts.Intro).Sub(opts.Outro)
	if available == 0 {
		return nil
	}
	dwell := timecode.Time(available.Millis() / uint64(len(regions)))
	dwell = max(dwell, opts.MinDwell)
	if opts.MaxDwell > 0 {
		dwell = min(dwell, opts.MaxDwell)
	}
	if dwell == 0 {
		return nil
	}
	if fits := int(available.Millis() / dwell.Millis()); fits < len(regions) {
		regions = regions[:fits]
	}
	if len(regions) == 0 {
		return nil
	}

	keys := make([]keyframe, 0, len(regions)+1)
	at := opts.Intro
	if at == 0 {
		at = 1 // breakpoints must lie strictly inside the component
	}
	for _, r := range regions {
		z := zoomFor(r, scale, opts)
		cx := float64(r.Min.X+r.Max.X) / 2
		cy := float64(r.Min.Y+r.Max.Y) / 2
		keys = append(keys, keyframe{
			at:   at,
			zoom: z,
			dx:   float64(opts.Width)/2 - cx*scale*z - float64(origin.X),
			dy:   float64(opts.Height)/2 - cy*scale*z - float64(origin.Y),
		})
		at = at.Add(dwell)
	}
	if at < length {
		keys = append(keys, keyframe{at: at, zoom: 1})
	}
	return keys
}

// zoomFor returns the zoom that makes r fill Padding of the viewport,
// clamped to [1, MaxZoom].
func zoomFor(r image.Rectangle, scale float64, opts Options) float64 {
	if r.Dx() == 0 || r.Dy() == 0 || scale == 0 {
		return 1
	}
	pad := opts.Padding
	if pad <= 0 {
		pad = 1
	}
	z := math.Min(
		float64(opts.Width)*pad/(float64(r.Dx())*scale),
		float64(opts.Height)*pad/(float64(r.Dy())*scale),
	)
	z = math.Max(z, 1)
	if opts.MaxZoom >= 1 {
		z = math.Min(z, opts.MaxZoom)
	}
	return z
}

func fraction(at, length timecode.Time) float64 {
	if length == 0 {
		return 0
	}
	return at.Seconds() / length.Seconds()
}
