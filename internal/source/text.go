package source

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// FontNames lists the accepted values of the "font" text property.
var FontNames = []string{"regular", "bold", "italic", "mono"}

var fontData = map[string][]byte{
	"regular": goregular.TTF,
	"bold":    gobold.TTF,
	"italic":  goitalic.TTF,
	"mono":    gomono.TTF,
}

// TextOptions controls text rasterization.
type TextOptions struct {
	Font  string
	Size  float64
	Color color.RGBA
}

// NewTextSource rasterizes text once onto a transparent background. Lines
// are split on '\n'.
func NewTextSource(text string, opts TextOptions) (*Static, error) {
	img, err := RenderText(text, opts)
	if err != nil {
		return nil, err
	}
	return &Static{Image: img}, nil
}

// RenderText draws text with one of the bundled Go fonts.
func RenderText(text string, opts TextOptions) (*image.RGBA, error) {
	data, ok := fontData[strings.ToLower(opts.Font)]
	if opts.Font == "" {
		data, ok = goregular.TTF, true
	}
	if !ok {
		return nil, fmt.Errorf("unknown font %q", opts.Font)
	}
	if opts.Size <= 0 {
		opts.Size = 48
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(norm.NFC.String(text), "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	width := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > width {
			width = w
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, lineHeight*len(lines)))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(opts.Color),
		Face: face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(0, ascent+i*lineHeight)
		d.DrawString(line)
	}
	return img, nil
}
