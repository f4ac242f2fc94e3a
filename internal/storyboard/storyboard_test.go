package storyboard

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/effects"
	"github.com/ivlev/compositor/internal/timecode"
)

func TestBuildLaysOutPages(t *testing.T) {
	pages := []Page{
		{Path: "a.png", Index: -1, Size: image.Pt(640, 360)},
		{Path: "b.png", Index: -1, Size: image.Pt(360, 640)},
		{Path: "deck.pdf", Index: 2, Size: image.Pt(1280, 720)},
	}
	opts := DefaultOptions(1280, 720)
	opts.DPI = 150

	doc, err := Build(pages, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(9000), doc.Length)
	require.Len(t, doc.Components, 3)

	first, second, third := doc.Components[0], doc.Components[1], doc.Components[2]
	assert.Equal(t, "page-001", first.ID)
	assert.Equal(t, uint64(0), first.StartTime)
	assert.Equal(t, uint64(3500), first.Length, "overlaps the next page by the fade")
	assert.Equal(t, uint64(3000), second.StartTime)
	assert.Equal(t, uint64(3000), third.Length, "last page has no overlap")
	assert.Greater(t, first.LayerIndex, second.LayerIndex, "later pages are drawn on top")

	assert.Equal(t, [2]float64{2, 2}, *first.Scale)
	assert.Equal(t, [2]int{0, 0}, *first.Coordinate)
	assert.InDelta(t, 1.125, (*second.Scale)[0], 1e-9)
	assert.Equal(t, [2]int{438, 0}, *second.Coordinate)

	assert.Empty(t, first.Effects, "the first page does not fade in")
	require.Len(t, second.Effects, 1)
	fade := second.Effects[0]
	assert.Equal(t, "Alpha", fade.EffectType)
	require.Len(t, fade.Breakpoints, 1)
	assert.InDelta(t, 500.0/3500, fade.Breakpoints[0].Position, 1e-9)

	assert.Equal(t, map[string]any{"page": 2, "dpi": 150}, third.Properties)
	assert.Nil(t, first.Properties)
}

func TestBuildTotalAndAudio(t *testing.T) {
	pages := []Page{{Path: "a.png", Index: -1, Size: image.Pt(10, 10)}, {Path: "b.png", Index: -1, Size: image.Pt(10, 10)}}
	opts := DefaultOptions(100, 100)
	opts.Total = 10001
	opts.Fade = 4000
	opts.Audio = "music.mp3"

	doc, err := Build(pages, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), doc.Length)
	assert.Equal(t, uint64(7500), doc.Components[0].Length, "fade is capped at half a page")

	track := doc.Components[2]
	assert.Equal(t, "Sound", track.ComponentType)
	assert.Equal(t, "music.mp3", track.Entity)
	assert.Equal(t, uint64(10000), track.Length)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil, DefaultOptions(10, 10))
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = Build([]Page{{Path: "a.png", Index: -1}}, DefaultOptions(10, 10))
	assert.Error(t, err)

	opts := DefaultOptions(10, 10)
	opts.PageDuration = 0
	_, err = Build([]Page{{Path: "a.png", Index: -1, Size: image.Pt(1, 1)}}, opts)
	assert.Error(t, err)
}

func TestCameraVisitsRegions(t *testing.T) {
	pg := Page{
		Path:  "a.png",
		Index: -1,
		Size:  image.Pt(1280, 720),
		Regions: []image.Rectangle{
			image.Rect(0, 0, 320, 180),
			image.Rect(640, 360, 1280, 720),
		},
	}
	opts := DefaultOptions(1280, 720)
	opts.PageDuration = 6000
	opts.Fade = 0
	opts.Focus = true

	doc, err := Build([]Page{pg}, opts)
	require.NoError(t, err)
	c := doc.Components[0]
	require.Len(t, c.Effects, 4)

	scaleX := c.Effects[0]
	assert.Equal(t, "ScaleX", scaleX.EffectType)
	assert.Equal(t, 1.0, scaleX.StartValue)
	assert.Equal(t, 1.0, scaleX.EndValue)
	// two regions then back to the full view, 2s dwell each after a 1s intro
	require.Len(t, scaleX.Breakpoints, 3)
	assert.InDelta(t, 1.0/6, scaleX.Breakpoints[0].Position, 1e-9)
	assert.InDelta(t, 3.0/6, scaleX.Breakpoints[1].Position, 1e-9)
	assert.InDelta(t, 5.0/6, scaleX.Breakpoints[2].Position, 1e-9)
	assert.InDelta(t, 3.0, scaleX.Breakpoints[0].Value, 1e-9, "small block hits the zoom cap")
	assert.InDelta(t, 1.8, scaleX.Breakpoints[1].Value, 1e-9)
	assert.Equal(t, 1.0, scaleX.Breakpoints[2].Value)

	dx := c.Effects[2]
	assert.Equal(t, "CoordinateX", dx.EffectType)
	// region centre (160, 90) at zoom 3 must land on the canvas centre
	assert.InDelta(t, 640-160*3, dx.Breakpoints[0].Value, 1e-9)
	assert.Equal(t, 0.0, dx.Breakpoints[2].Value)

	spec, err := effectOf(dx)
	require.NoError(t, err)
	assert.InDelta(t, 640-160*3, spec.Value(1.0/6), 1e-9)
	assert.InDelta(t, 0, spec.Value(1), 1e-9)
}

func TestCameraDropsRegionsThatDoNotFit(t *testing.T) {
	pg := Page{Path: "a.png", Index: -1, Size: image.Pt(100, 100)}
	for i := 0; i < 10; i++ {
		pg.Regions = append(pg.Regions, image.Rect(i*10, 0, i*10+5, 5))
	}
	opts := DefaultOptions(100, 100)
	opts.PageDuration = 5000
	opts.Fade = 0
	opts.Focus = true

	keys := plan(pg, 1, image.Point{}, 5000, opts)
	require.Len(t, keys, 4, "three regions at the 1s minimum dwell, then full view")
	assert.Equal(t, timecode.Time(4000), keys[3].at)

	opts.PageDuration = 2000
	doc, err := Build([]Page{pg}, opts)
	require.NoError(t, err)
	assert.Empty(t, doc.Components[0].Effects, "no room between intro and outro")
}

func TestBuildProducesLoadableDocument(t *testing.T) {
	pg := Page{Path: "a.png", Index: -1, Size: image.Pt(400, 300), Regions: []image.Rectangle{image.Rect(10, 10, 200, 100)}}
	opts := DefaultOptions(640, 480)
	opts.Focus = true
	opts.Audio = "track.mp3"

	doc, err := Build([]Page{pg, pg}, opts)
	require.NoError(t, err)

	for _, format := range []document.Format{document.YAML, document.JSON} {
		data, err := document.Encode(doc, format)
		require.NoError(t, err)
		back, err := document.Decode(data, format)
		require.NoError(t, err, format.String())
		_, err = back.Specs()
		require.NoError(t, err, format.String())
	}
}

func TestLoadPagesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSlide(t, filepath.Join(dir, "02.png"), page(300, 200, image.Rect(40, 40, 160, 120)))
	writeSlide(t, filepath.Join(dir, "01.png"), page(200, 100))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	pages, err := LoadPages(context.Background(), dir, LoadOptions{Detect: true, Detector: DefaultDetector(), Workers: 2})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, filepath.Join(dir, "01.png"), pages[0].Path)
	assert.Equal(t, image.Pt(200, 100), pages[0].Size)
	assert.Empty(t, pages[0].Regions)
	assert.Equal(t, -1, pages[1].Index)
	assert.Len(t, pages[1].Regions, 1)
}

func TestLoadPagesSingleFileAndErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.png")
	writeSlide(t, path, page(64, 32))

	pages, err := LoadPages(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, image.Pt(64, 32), pages[0].Size)
	assert.Nil(t, pages[0].Regions)

	_, err = LoadPages(context.Background(), filepath.Join(t.TempDir(), "missing"), LoadOptions{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadPages(ctx, path, LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func writeSlide(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func effectOf(e document.Effect) (effects.Effect, error) {
	out := effects.Effect{Type: effects.ParseType(e.EffectType), Start: e.StartValue, End: e.EndValue}
	var err error
	if out.Transition, err = effects.ParseCurve(e.Transition); err != nil {
		return out, err
	}
	for _, bp := range e.Breakpoints {
		curve, err := effects.ParseCurve(bp.Transition)
		if err != nil {
			return out, err
		}
		out.Breakpoints = append(out.Breakpoints, effects.Breakpoint{Transition: curve, Position: bp.Position, Value: bp.Value})
	}
	return out, out.Validate()
}
