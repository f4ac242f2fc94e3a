package storyboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/compositor/internal/source"
)

// LoadOptions controls how LoadPages reads its input.
type LoadOptions struct {
	DPI      int
	Detect   bool
	Detector Detector
	Workers  int
}

// LoadPages expands input into pages: every page of a PDF, every image in
// a directory (by name), or a single image file. Each page is rasterized
// once to measure it and, with Detect set, to find its regions.
func LoadPages(ctx context.Context, input string, opts LoadOptions) ([]Page, error) {
	pages, err := listPages(input, opts.DPI)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pages {
		pg := &pages[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return measure(pg, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func listPages(input string, dpi int) ([]Page, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("storyboard input: %w", err)
	}
	if fi.IsDir() {
		paths, err := source.ListImages(input)
		if err != nil {
			return nil, err
		}
		pages := make([]Page, len(paths))
		for i, p := range paths {
			pages[i] = Page{Path: p, Index: -1}
		}
		return pages, nil
	}
	if !strings.EqualFold(filepath.Ext(input), ".pdf") {
		return []Page{{Path: input, Index: -1}}, nil
	}

	// page 0 is rendered at a throwaway resolution just to count pages
	pdf, err := source.NewFitzPDFSource(input, 0, 10)
	if err != nil {
		return nil, err
	}
	count := pdf.PageCount()
	if err := pdf.Close(); err != nil {
		return nil, err
	}
	pages := make([]Page, count)
	for i := range pages {
		pages[i] = Page{Path: input, Index: i}
	}
	return pages, nil
}

func measure(pg *Page, opts LoadOptions) error {
	var (
		src source.MediaSource
		err error
	)
	if pg.Index >= 0 {
		src, err = source.NewFitzPDFSource(pg.Path, pg.Index, opts.DPI)
	} else {
		src, err = source.NewImageSource(pg.Path, 1)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	img, ok := src.Peek(0)
	if !ok {
		return fmt.Errorf("%w: %s has no frame", source.ErrUnavailable, pg.Path)
	}
	b := img.Bounds()
	pg.Size = b.Size()
	if opts.Detect {
		for _, r := range opts.Detector.Regions(img) {
			pg.Regions = append(pg.Regions, r.Sub(b.Min))
		}
	}
	return nil
}
