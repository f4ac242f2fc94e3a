package effects

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var outsideFill = color.RGBA{A: 0xff}

// RotateImage rotates img by degrees around its centre into a buffer sized
// to the rotated bounding box. Destination pixels that map outside the
// source are filled with opaque black.
func RotateImage(img image.Image, degrees float64) image.Image {
	if degrees == 0 || math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return img
	}
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	theta := degrees * math.Pi / 180
	sin, cos := math.Sincos(theta)
	newW := int(math.Abs(float64(w)*cos) + math.Abs(float64(h)*sin))
	newH := int(math.Abs(float64(w)*sin) + math.Abs(float64(h)*cos))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	srcCX, srcCY := float64(w)/2, float64(h)/2
	dstCX, dstCY := float64(newW)/2, float64(newH)/2

	// inverse rotation by -theta, sampling at pixel centres
	rsin, rcos := -sin, cos
	for iy := 0; iy < newH; iy++ {
		dy := float64(iy) + 0.5 - dstCY
		for ix := 0; ix < newW; ix++ {
			dx := float64(ix) + 0.5 - dstCX
			sx := int(math.Floor(dx*rcos - dy*rsin + srcCX))
			sy := int(math.Floor(dx*rsin + dy*rcos + srcCY))

			di := dst.PixOffset(ix, iy)
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				dst.Pix[di+0] = outsideFill.R
				dst.Pix[di+1] = outsideFill.G
				dst.Pix[di+2] = outsideFill.B
				dst.Pix[di+3] = outsideFill.A
				continue
			}
			si := src.PixOffset(src.Rect.Min.X+sx, src.Rect.Min.Y+sy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// toRGBA returns img as *image.RGBA, converting when needed. Decoders for
// formats without an alpha channel yield opaque pixels after conversion.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
