package storyboard

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// Detector finds regions of interest on a page using Sobel edge detection,
// morphological dilation and connected components.
type Detector struct {
	MinArea       int     // minimum region area in source pixels
	EdgeThreshold float64 // gradient magnitude threshold
	// MaxSide bounds the working resolution. Pages are downscaled before
	// analysis and regions mapped back to page coordinates.
	MaxSide int
	// RowTolerance is the vertical slack, in source pixels, for two
	// regions to count as one reading row.
	RowTolerance int
}

// DefaultDetector returns a detector with moderate sensitivity.
func DefaultDetector() Detector {
	return Detector{
		MinArea:       500,
		EdgeThreshold: 30,
		MaxSide:       1000,
		RowTolerance:  20,
	}
}

// Regions returns the bounding boxes of the content blocks of img in
// reading order: top to bottom, then left to right within a row.
func (d Detector) Regions(img image.Image) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	factor := 1.0
	if side := max(b.Dx(), b.Dy()); d.MaxSide > 0 && side > d.MaxSide {
		factor = float64(d.MaxSide) / float64(side)
	}

	gray := toGray(img, factor)
	edges := sobel(gray, d.EdgeThreshold)
	dilated := dilate(edges, 5, 2)

	minArea := float64(d.MinArea) * factor * factor
	var regions []image.Rectangle
	for _, r := range components(dilated) {
		if float64(r.Dx()*r.Dy()) < minArea {
			continue
		}
		regions = append(regions, unscale(r, factor, b))
	}
	sortReadingOrder(regions, d.RowTolerance)
	return regions
}

// toGray converts img to grayscale at the given scale factor, with the
// origin moved to (0,0).
func toGray(img image.Image, factor float64) *image.Gray {
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if factor == 1 {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}
	return gray
}

func unscale(r image.Rectangle, factor float64, page image.Rectangle) image.Rectangle {
	out := image.Rect(
		int(math.Floor(float64(r.Min.X)/factor)),
		int(math.Floor(float64(r.Min.Y)/factor)),
		int(math.Ceil(float64(r.Max.X)/factor)),
		int(math.Ceil(float64(r.Max.Y)/factor)),
	).Add(page.Min)
	return out.Intersect(page)
}

var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

func sobel(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			var sx, sy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					sx += v * float64(sobelX[ky+1][kx+1])
					sy += v * float64(sobelY[ky+1][kx+1])
				}
			}
			if math.Hypot(sx, sy) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return edges
}

// dilate grows white areas with a square kernel so nearby edges merge
// into one block.
func dilate(img *image.Gray, kernel, iterations int) *image.Gray {
	b := img.Bounds()
	half := kernel / 2
	cur := img
	for i := 0; i < iterations; i++ {
		next := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				var hi uint8
				for ky := max(b.Min.Y, y-half); ky <= min(b.Max.Y-1, y+half) && hi < 255; ky++ {
					for kx := max(b.Min.X, x-half); kx <= min(b.Max.X-1, x+half); kx++ {
						if v := cur.GrayAt(kx, ky).Y; v > hi {
							hi = v
						}
					}
				}
				next.SetGray(x, y, color.Gray{Y: hi})
			}
		}
		cur = next
	}
	return cur
}

// components returns the bounding boxes of 4-connected white areas.
func components(img *image.Gray) []image.Rectangle {
	b := img.Bounds()
	visited := make([]bool, b.Dx()*b.Dy())
	at := func(x, y int) int { return (y-b.Min.Y)*b.Dx() + (x - b.Min.X) }

	var out []image.Rectangle
	var stack []image.Point
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if visited[at(x, y)] || img.GrayAt(x, y).Y <= 128 {
				continue
			}
			box := image.Rect(x, y, x+1, y+1)
			stack = append(stack[:0], image.Pt(x, y))
			visited[at(x, y)] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				box = box.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for _, n := range [4]image.Point{image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y), image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1)} {
					if !n.In(b) || visited[at(n.X, n.Y)] || img.GrayAt(n.X, n.Y).Y <= 128 {
						continue
					}
					visited[at(n.X, n.Y)] = true
					stack = append(stack, n)
				}
			}
			out = append(out, box)
		}
	}
	return out
}

func sortReadingOrder(regions []image.Rectangle, tolerance int) {
	sort.SliceStable(regions, func(i, j int) bool {
		dy := regions[i].Min.Y - regions[j].Min.Y
		if dy > tolerance || dy < -tolerance {
			return dy < 0
		}
		return regions[i].Min.X < regions[j].Min.X
	})
}
