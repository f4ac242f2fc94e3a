// Package compositor resolves a project at a timeline position into one
// raster: it picks the active components, orders them by layer, folds their
// effects and blends them onto a black canvas.
package compositor

import (
	"image"
	"image/color"
	"sort"

	"golang.org/x/image/draw"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/system"
	"github.com/ivlev/compositor/internal/timecode"
)

var background = image.NewUniform(color.RGBA{A: 0xff})

// Active returns the components visible at pos in draw order: highest
// layer first, layer 0 last. Components sharing a layer keep their
// insertion order and are drawn in reverse of it.
func Active(p *project.Project, pos timecode.Time) []*project.Component {
	var active []*project.Component
	for _, c := range p.Components() {
		if c.Active(pos) {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Layer < active[j].Layer
	})
	for i, j := 0, len(active)-1; i < j; i, j = i+1, j-1 {
		active[i], active[j] = active[j], active[i]
	}
	return active
}

// Render composites p at pos. The returned canvas comes from the system
// image pool; callers that are done with it may hand it back with
// system.PutImage. Render does not modify p.
func Render(p *project.Project, pos timecode.Time) *image.RGBA {
	canvas := system.GetImage(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(canvas, canvas.Bounds(), background, image.Point{}, draw.Src)

	logger := p.Logger()
	for _, c := range Active(p, pos) {
		if c.Kind == source.KindSound {
			continue
		}
		frame, err := c.Peek(pos)
		if err != nil {
			logger.Debug("skipping component", "component", c.ID, "position", pos, "error", err)
			continue
		}
		frame, g := resolve(c, frame, c.Progress(pos))
		blend(canvas, frame, g)
	}
	return canvas
}

// resolve folds the component's effects over its base geometry and applies
// raster effects to frame in declaration order.
func resolve(c *project.Component, frame image.Image, progress float64) (image.Image, effects.Geometry) {
	g := c.Base
	if g.Rotation != 0 {
		frame = effects.RotateImage(frame, g.Rotation)
	}
	for i := range c.Effects {
		e := &c.Effects[i]
		g = e.Apply(g, progress)
		frame = e.ApplyPixels(frame, progress)
	}
	return frame, g
}

// blend draws frame onto canvas at the geometry's coordinate, scaled with
// nearest-neighbour sampling, clipped to the canvas and weighted by the
// geometry's alpha.
func blend(canvas *image.RGBA, frame image.Image, g effects.Geometry) {
	if g.Alpha <= 0 || !(g.ScaleX > 0) || !(g.ScaleY > 0) {
		return
	}
	sb := frame.Bounds()
	w := int(float64(sb.Dx()) * g.ScaleX)
	h := int(float64(sb.Dy()) * g.ScaleY)
	if w <= 0 || h <= 0 {
		return
	}
	target := image.Rect(g.X, g.Y, g.X+w, g.Y+h)
	clip := target.Intersect(canvas.Bounds())
	if clip.Empty() {
		return
	}

	scratch := system.GetImage(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	defer system.PutImage(scratch)
	draw.NearestNeighbor.Scale(scratch, target.Sub(clip.Min), frame, sb, draw.Src, nil)

	var mask image.Image
	if g.Alpha < 0xff {
		mask = image.NewUniform(color.Alpha{A: uint8(g.Alpha)})
	}
	draw.DrawMask(canvas, clip, scratch, image.Point{}, mask, image.Point{}, draw.Over)
}

// Compositor pairs a project with a render cursor.
type Compositor struct {
	project  *project.Project
	position timecode.Time
}

func New(p *project.Project) *Compositor {
	return &Compositor{project: p}
}

// Seek moves the cursor. Positions past the project end are allowed and
// render whatever is still active there.
func (c *Compositor) Seek(pos timecode.Time) {
	c.position = pos
}

func (c *Compositor) Position() timecode.Time {
	return c.position
}

// Frame renders the project at the cursor.
func (c *Compositor) Frame() *image.RGBA {
	return Render(c.project, c.position)
}

func (c *Compositor) Project() *project.Project {
	return c.project
}
