package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/pagemill/pagemill/internal/domain"
)

// Downscale resizes a page image from its render DPI to a lower
// transmission DPI and re-encodes it as PNG. Pages travel to the model
// at the lower resolution while crops are taken from the full raster.
// Returns the input unchanged when no reduction applies.
func Downscale(page domain.PageImage, fromDPI, toDPI int) (domain.PageImage, error) {
	if toDPI <= 0 || toDPI >= fromDPI {
		return page, nil
	}

	newW := page.Width * toDPI / fromDPI
	newH := page.Height * toDPI / fromDPI
	if newW < 1 || newH < 1 {
		return page, nil
	}

	src, err := png.Decode(bytes.NewReader(page.Data))
	if err != nil {
		return domain.PageImage{}, fmt.Errorf("decode page %d: %w", page.PageNum, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return domain.PageImage{}, fmt.Errorf("encode page %d: %w", page.PageNum, err)
	}

	return domain.PageImage{
		PageNum: page.PageNum,
		Data:    buf.Bytes(),
		Width:   newW,
		Height:  newH,
	}, nil
}
