package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/compositor/internal/timecode"
)

// FitzPDFSource rasterizes one PDF page through MuPDF. The page is rendered
// at open time; the document handle stays open until Close.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	page image.Image
}

func NewFitzPDFSource(path string, page, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrUnavailable, err)
	}
	if page < 0 || page >= doc.NumPage() {
		doc.Close()
		return nil, fmt.Errorf("%w: page %d out of range (%d pages)", ErrUnavailable, page, doc.NumPage())
	}
	if dpi <= 0 {
		dpi = 150
	}
	img, err := doc.ImageDPI(page, float64(dpi))
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("%w: render page %d: %v", ErrUnavailable, page, err)
	}
	return &FitzPDFSource{doc: doc, path: path, page: img}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) Duration() timecode.Time { return timecode.Max }

func (f *FitzPDFSource) Peek(timecode.Time) (image.Image, bool) {
	return f.page, f.page != nil
}

func (f *FitzPDFSource) Close() error {
	f.page = nil
	return f.doc.Close()
}
