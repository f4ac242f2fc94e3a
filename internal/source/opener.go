package source

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultOpener dispatches on the component kind to the bundled backends.
type DefaultOpener struct {
	DPI      int
	FontSize float64
	FPS      float64

	// BaseDir anchors relative media paths, usually the project file's
	// directory.
	BaseDir string
	Logger  *slog.Logger
}

func (o *DefaultOpener) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *DefaultOpener) resolve(path string) string {
	if path == "" || o.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.BaseDir, path)
}

func (o *DefaultOpener) Open(ref Ref) (MediaSource, error) {
	var (
		src MediaSource
		err error
	)
	ref.Path = o.resolve(ref.Path)
	switch ref.Kind {
	case KindImage:
		if strings.EqualFold(filepath.Ext(ref.Path), ".pdf") {
			src, err = NewFitzPDFSource(ref.Path, int(ref.Props.Integer("page", 0)), int(ref.Props.Integer("dpi", int64(o.DPI))))
		} else {
			src, err = NewImageSource(ref.Path, ref.Props.Float("fps", o.FPS))
		}
	case KindVideo:
		src, err = NewVideoSource(ref.Path)
	case KindSound:
		src, err = NewSoundSource(ref.Path)
	case KindText:
		src, err = o.openText(ref)
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", ErrUnavailable, ref.Kind)
	}
	if err != nil {
		o.logger().Debug("open media failed", "kind", ref.Kind, "path", ref.Path, "error", err)
		return nil, err
	}
	return src, nil
}

func (o *DefaultOpener) openText(ref Ref) (MediaSource, error) {
	fg := ref.Props.Color("color", color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if strings.EqualFold(ref.Props.Text("style", ""), "qrcode") {
		bg := ref.Props.Color("background", color.RGBA{R: 255, G: 255, B: 255, A: 255})
		if fg == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			fg = color.RGBA{A: 255}
		}
		return NewQRSource(ref.Text, int(ref.Props.Integer("size", 256)), fg, bg)
	}
	size := ref.Props.Float("font_size", o.FontSize)
	return NewTextSource(ref.Text, TextOptions{
		Font:  ref.Props.Text("font", "regular"),
		Size:  size,
		Color: fg,
	})
}
