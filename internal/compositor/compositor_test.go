package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/project"
	"github.com/ivlev/compositor/internal/source"
	"github.com/ivlev/compositor/internal/timecode"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
)

func solid(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// solidOpener serves solid rasters keyed by path; unknown paths fail.
func solidOpener(images map[string]image.Image) source.Opener {
	return source.OpenerFunc(func(ref source.Ref) (source.MediaSource, error) {
		img, ok := images[ref.Path]
		if !ok {
			return nil, source.ErrUnavailable
		}
		return &source.Static{Image: img}, nil
	})
}

func newProject(t *testing.T, w, h int, images map[string]image.Image, specs ...project.ComponentSpec) *project.Project {
	t.Helper()
	p := project.New(w, h, 5000, project.WithOpener(solidOpener(images)))
	for _, s := range specs {
		_, err := p.AddComponent(s)
		require.NoError(t, err)
	}
	return p
}

func at(x, y int) *effects.Geometry {
	g := effects.DefaultGeometry()
	g.X, g.Y = x, y
	return &g
}

func TestRenderEmptyProjectIsBlack(t *testing.T) {
	p := newProject(t, 32, 16, nil)
	out := Render(p, 0)
	require.Equal(t, image.Rect(0, 0, 32, 16), out.Bounds())
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			require.Equal(t, black, out.RGBAAt(x, y))
		}
	}
}

func TestRenderImageScenario(t *testing.T) {
	p := newProject(t, 640, 480,
		map[string]image.Image{"red.png": solid(red, 100, 50)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Length: 1000, Base: at(10, 20)},
	)
	out := Render(p, 500)
	require.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())

	assert.Equal(t, red, out.RGBAAt(10, 20))
	assert.Equal(t, red, out.RGBAAt(109, 69))
	assert.Equal(t, black, out.RGBAAt(9, 20))
	assert.Equal(t, black, out.RGBAAt(10, 19))
	assert.Equal(t, black, out.RGBAAt(110, 69))
	assert.Equal(t, black, out.RGBAAt(109, 70))
	assert.Equal(t, black, out.RGBAAt(639, 479))
}

func TestRenderLowerLayerWins(t *testing.T) {
	images := map[string]image.Image{
		"red.png":  solid(red, 10, 10),
		"blue.png": solid(blue, 10, 10),
	}
	cases := []struct {
		name  string
		specs []project.ComponentSpec
	}{
		{
			name: "front declared first",
			specs: []project.ComponentSpec{
				{Kind: source.KindImage, Path: "red.png", Length: 1000, Layer: 0},
				{Kind: source.KindImage, Path: "blue.png", Length: 1000, Layer: 1, Base: at(5, 5)},
			},
		},
		{
			name: "front declared last",
			specs: []project.ComponentSpec{
				{Kind: source.KindImage, Path: "blue.png", Length: 1000, Layer: 1, Base: at(5, 5)},
				{Kind: source.KindImage, Path: "red.png", Length: 1000, Layer: 0},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Render(newProject(t, 20, 20, images, tc.specs...), 100)
			assert.Equal(t, red, out.RGBAAt(7, 7))
			assert.Equal(t, red, out.RGBAAt(0, 0))
			assert.Equal(t, blue, out.RGBAAt(12, 12))
		})
	}
}

func TestRenderSameLayerKeepsInsertionOrder(t *testing.T) {
	p := newProject(t, 10, 10,
		map[string]image.Image{"red.png": solid(red, 10, 10), "blue.png": solid(blue, 10, 10)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Length: 1000},
		project.ComponentSpec{Kind: source.KindImage, Path: "blue.png", Length: 1000},
	)
	active := Active(p, 0)
	require.Len(t, active, 2)
	assert.Equal(t, "blue.png", active[0].Path)
	assert.Equal(t, red, Render(p, 0).RGBAAt(5, 5))
}

func TestRenderVisibilityBoundaries(t *testing.T) {
	p := newProject(t, 10, 10,
		map[string]image.Image{"red.png": solid(red, 10, 10)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Start: 1000, Length: 500},
	)
	for _, tc := range []struct {
		pos     timecode.Time
		visible bool
	}{
		{999, false},
		{1000, true},
		{1500, true},
		{1501, false},
		{1999, false},
	} {
		want := black
		if tc.visible {
			want = red
		}
		assert.Equal(t, want, Render(p, tc.pos).RGBAAt(3, 3), "position %d", tc.pos)
	}
}

func TestRenderSkipsUnavailableMedia(t *testing.T) {
	p := newProject(t, 10, 10,
		map[string]image.Image{"blue.png": solid(blue, 10, 10)},
		project.ComponentSpec{Kind: source.KindImage, Path: "missing.png", Length: 1000},
		project.ComponentSpec{Kind: source.KindImage, Path: "blue.png", Length: 1000, Layer: 2},
	)
	assert.Equal(t, blue, Render(p, 10).RGBAAt(0, 0))
}

func TestRenderEffectProgressIsComponentLocal(t *testing.T) {
	p := newProject(t, 200, 10,
		map[string]image.Image{"red.png": solid(red, 1, 1)},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "red.png", Start: 1000, Length: 1000,
			Effects: []effects.Effect{{Type: effects.CoordinateX, Start: 0, End: 100}},
		},
	)
	out := Render(p, 1500)
	assert.Equal(t, red, out.RGBAAt(50, 0))
	assert.Equal(t, black, out.RGBAAt(0, 0))

	out = Render(p, 2000)
	assert.Equal(t, red, out.RGBAAt(100, 0))
}

func TestRenderAlphaBlend(t *testing.T) {
	p := newProject(t, 4, 4,
		map[string]image.Image{"white.png": solid(white, 4, 4)},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "white.png", Length: 1000,
			Effects: []effects.Effect{{Type: effects.Alpha, Start: 128, End: 128}},
		},
	)
	px := Render(p, 0).RGBAAt(1, 1)
	assert.InDelta(t, 128, int(px.R), 1)
	assert.InDelta(t, 128, int(px.G), 1)
	assert.Equal(t, uint8(0xff), px.A)
}

func TestRenderZeroAlphaIsInvisible(t *testing.T) {
	p := newProject(t, 4, 4,
		map[string]image.Image{"white.png": solid(white, 4, 4)},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "white.png", Length: 1000,
			Effects: []effects.Effect{{Type: effects.Alpha, Start: 0, End: 0}},
		},
	)
	assert.Equal(t, black, Render(p, 0).RGBAAt(1, 1))
}

func TestRenderScaleNearestNeighbour(t *testing.T) {
	src := solid(red, 2, 1)
	src.SetRGBA(1, 0, blue)
	p := newProject(t, 10, 10,
		map[string]image.Image{"pair.png": src},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "pair.png", Length: 1000,
			Effects: []effects.Effect{
				{Type: effects.ScaleX, Start: 2, End: 2},
				{Type: effects.ScaleY, Start: 3, End: 3},
			},
		},
	)
	out := Render(p, 0)
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, red, out.RGBAAt(1, 2))
	assert.Equal(t, blue, out.RGBAAt(2, 0))
	assert.Equal(t, blue, out.RGBAAt(3, 2))
	assert.Equal(t, black, out.RGBAAt(4, 0))
	assert.Equal(t, black, out.RGBAAt(0, 3))
}

func TestRenderClipsToCanvas(t *testing.T) {
	p := newProject(t, 20, 20,
		map[string]image.Image{"red.png": solid(red, 10, 10)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Length: 1000, Base: at(15, 15)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Length: 1000, Base: at(-5, -5)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Length: 1000, Base: at(50, 50)},
	)
	out := Render(p, 0)
	assert.Equal(t, red, out.RGBAAt(19, 19))
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, red, out.RGBAAt(4, 4))
	assert.Equal(t, black, out.RGBAAt(5, 5))
	assert.Equal(t, black, out.RGBAAt(14, 14))
}

func TestRenderRotateEffect(t *testing.T) {
	p := newProject(t, 40, 40,
		map[string]image.Image{"red.png": solid(red, 20, 10)},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "red.png", Length: 1000,
			Effects: []effects.Effect{{Type: effects.Rotate, Start: 90, End: 90}},
		},
	)
	out := Render(p, 0)
	assert.Equal(t, red, out.RGBAAt(5, 10))
	assert.Equal(t, black, out.RGBAAt(15, 5))
}

func TestRenderDoesNotMutateProject(t *testing.T) {
	p := newProject(t, 10, 10,
		map[string]image.Image{"red.png": solid(red, 4, 4)},
		project.ComponentSpec{
			Kind: source.KindImage, Path: "red.png", Length: 1000, Base: at(1, 1),
			Effects: []effects.Effect{{Type: effects.CoordinateX, Start: 0, End: 5}},
		},
	)
	before := p.Components()[0].Base
	a := Render(p, 400)
	first := append([]byte(nil), a.Pix...)
	b := Render(p, 400)
	assert.Equal(t, first, b.Pix)
	assert.Equal(t, before, p.Components()[0].Base)
}

func TestCompositorCursor(t *testing.T) {
	p := newProject(t, 10, 10,
		map[string]image.Image{"red.png": solid(red, 10, 10)},
		project.ComponentSpec{Kind: source.KindImage, Path: "red.png", Start: 1000, Length: 500},
	)
	c := New(p)
	assert.Equal(t, timecode.Time(0), c.Position())
	assert.Equal(t, black, c.Frame().RGBAAt(0, 0))

	c.Seek(1200)
	assert.Equal(t, timecode.Time(1200), c.Position())
	assert.Equal(t, red, c.Frame().RGBAAt(0, 0))
	assert.Same(t, p, c.Project())
}
