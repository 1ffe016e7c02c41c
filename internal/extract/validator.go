package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/rs/zerolog"

	"github.com/pagemill/pagemill/internal/domain"
)

// bboxSpace is the coordinate space the model reports bounding boxes
// in, on both axes.
const bboxSpace = 1000

// ElementValidator filters model-proposed visual elements and crops the
// accepted ones out of the rendered pages.
type ElementValidator struct {
	MinArea float64
	MaxArea float64
	log     zerolog.Logger
}

// NewElementValidator creates a validator with normalized-area bounds.
func NewElementValidator(minArea, maxArea float64, log zerolog.Logger) *ElementValidator {
	return &ElementValidator{MinArea: minArea, MaxArea: maxArea, log: log}
}

// Process validates each proposed element and saves accepted crops
// under imagesDir. A bad element never aborts the rest: rejects are
// reported through the sink and skipped. Returns the number of images
// written.
func (v *ElementValidator) Process(
	elements []domain.ImageMetadata,
	pages []domain.PageImage,
	imagesDir string,
	sink domain.ProgressSink,
) int {
	byPage := make(map[int]domain.PageImage, len(pages))
	for _, p := range pages {
		byPage[p.PageNum] = p
	}

	saved := 0
	for _, meta := range elements {
		img, err := v.crop(meta, byPage)
		if err != nil {
			v.log.Warn().Err(err).Str("figure", meta.FigureID()).Msg("skipping visual element")
			sink.Error(err.Error())
			continue
		}
		if _, err := img.SaveTo(imagesDir); err != nil {
			v.log.Warn().Err(err).Str("figure", meta.FigureID()).Msg("saving visual element")
			sink.Error(err.Error())
			continue
		}
		sink.ImageExtracted(meta.FigureID(), meta.PageNumber)
		saved++
	}
	return saved
}

func (v *ElementValidator) crop(meta domain.ImageMetadata, byPage map[int]domain.PageImage) (*domain.ExtractedImage, error) {
	area := meta.NormalizedArea()
	if area < v.MinArea || area > v.MaxArea {
		return nil, &domain.VisualElementError{
			FigureID: meta.FigureID(),
			Reason:   fmt.Sprintf("normalized area %.3f outside [%.2f, %.2f]", area, v.MinArea, v.MaxArea),
		}
	}

	x1, y1, x2, y2 := meta.BBox[0], meta.BBox[1], meta.BBox[2], meta.BBox[3]
	if x1 < 0 || y1 < 0 || x1 >= x2 || y1 >= y2 || x2 > bboxSpace || y2 > bboxSpace {
		return nil, &domain.VisualElementError{
			FigureID: meta.FigureID(),
			Reason:   fmt.Sprintf("invalid bounding box [%d %d %d %d]", x1, y1, x2, y2),
		}
	}

	page, ok := byPage[meta.PageNumber]
	if !ok {
		return nil, &domain.VisualElementError{
			FigureID: meta.FigureID(),
			Reason:   fmt.Sprintf("page %d not in batch", meta.PageNumber),
		}
	}

	src, err := png.Decode(bytes.NewReader(page.Data))
	if err != nil {
		return nil, &domain.VisualElementError{
			FigureID: meta.FigureID(),
			Reason:   fmt.Sprintf("decode page %d: %v", meta.PageNumber, err),
		}
	}

	b := src.Bounds()
	rect := image.Rect(
		b.Min.X+x1*b.Dx()/bboxSpace,
		b.Min.Y+y1*b.Dy()/bboxSpace,
		b.Min.X+x2*b.Dx()/bboxSpace,
		b.Min.Y+y2*b.Dy()/bboxSpace,
	)

	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(crop, crop.Bounds(), src, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, &domain.VisualElementError{
			FigureID: meta.FigureID(),
			Reason:   fmt.Sprintf("encode crop: %v", err),
		}
	}
	return &domain.ExtractedImage{Meta: meta, Data: buf.Bytes()}, nil
}
