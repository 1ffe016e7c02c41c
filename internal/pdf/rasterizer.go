// Package pdf turns PDF pages into in-memory PNG page images.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/pagemill/pagemill/internal/domain"
)

// Options controls page rendering.
type Options struct {
	// DPI is the rendering resolution.
	DPI int
	// WhiteThreshold is the channel value at or above which a pixel
	// counts as background for the whitespace crop. Zero disables
	// cropping.
	WhiteThreshold int
}

// Rasterizer renders pages of one open PDF document. It is not safe for
// concurrent use; the runner drives it from a single goroutine.
type Rasterizer struct {
	doc  *fitz.Document
	path string
	opts Options
	log  zerolog.Logger
}

// OpenDocument validates the path and opens the PDF for rendering. The
// document handle stays open across batches so pages are decoded at most
// once each; callers must Close it.
func OpenDocument(path string, opts Options, log zerolog.Logger) (*Rasterizer, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &domain.RasterizationError{Path: path, Err: err}
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, &domain.RasterizationError{Path: path, Err: fmt.Errorf("document has no pages")}
	}
	return &Rasterizer{doc: doc, path: path, opts: opts, log: log}, nil
}

// PageCount returns the number of pages in the document.
func (r *Rasterizer) PageCount() int {
	return r.doc.NumPage()
}

// RenderRange renders pages start..end (1-indexed, inclusive) and
// returns one whitespace-cropped PNG PageImage per page. sink receives a
// PageConverted event per rendered page, with the requested range's size
// as the total.
func (r *Rasterizer) RenderRange(ctx context.Context, start, end int, sink domain.ProgressSink) ([]domain.PageImage, error) {
	if start < 1 || end > r.doc.NumPage() || end < start {
		return nil, &domain.RasterizationError{
			Path: r.path,
			Err:  fmt.Errorf("page range %d-%d outside document (1-%d)", start, end, r.doc.NumPage()),
		}
	}

	pages := make([]domain.PageImage, 0, end-start+1)
	for pageNum := start; pageNum <= end; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := r.doc.ImageDPI(pageNum-1, float64(r.opts.DPI))
		if err != nil {
			return nil, &domain.RasterizationError{
				Path: r.path,
				Err:  fmt.Errorf("render page %d: %w", pageNum, err),
			}
		}

		var cropped image.Image = img
		if r.opts.WhiteThreshold > 0 {
			cropped = cropWhitespace(img, uint8(r.opts.WhiteThreshold))
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, cropped); err != nil {
			return nil, &domain.RasterizationError{
				Path: r.path,
				Err:  fmt.Errorf("encode page %d: %w", pageNum, err),
			}
		}

		bounds := cropped.Bounds()
		pages = append(pages, domain.PageImage{
			PageNum: pageNum,
			Data:    buf.Bytes(),
			Width:   bounds.Dx(),
			Height:  bounds.Dy(),
		})
		r.log.Debug().Int("page", pageNum).Int("width", bounds.Dx()).Int("height", bounds.Dy()).
			Msg("rendered page")
		sink.PageConverted(pageNum, end-start+1)
	}
	return pages, nil
}

// Close releases the underlying document.
func (r *Rasterizer) Close() error {
	if r.doc != nil {
		err := r.doc.Close()
		r.doc = nil
		return err
	}
	return nil
}

// cropWhitespace trims margins where every pixel channel is at or above
// threshold. Returns the original image when it is entirely background.
func cropWhitespace(img *image.RGBA, threshold uint8) image.Image {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+(b.Max.X-b.Min.X)*4]
		for x := 0; x < len(row); x += 4 {
			if row[x] < threshold || row[x+1] < threshold || row[x+2] < threshold {
				px := b.Min.X + x/4
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return img
	}
	return img.SubImage(image.Rect(minX, minY, maxX+1, maxY+1))
}
