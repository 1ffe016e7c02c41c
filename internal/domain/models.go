// Package domain holds the core data types shared across the pipeline.
package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageImage is one rasterized PDF page. Data is an encoded PNG raster.
// Instances are immutable once produced and live only as long as their
// batch's model calls are in flight.
type PageImage struct {
	PageNum int
	Data    []byte
	Width   int
	Height  int
}

// ImageMetadata describes one visual element proposed by the model.
// BBox is [x1, y1, x2, y2] in a normalized 0-1000 coordinate space
// independent of the page's pixel resolution.
type ImageMetadata struct {
	PageNumber  int    `json:"page_number"`
	FigNumber   int    `json:"fig_number"`
	BBox        [4]int `json:"bbox"`
	Caption     string `json:"caption,omitempty"`
	ElementType string `json:"element_type"`
}

// NormalizedArea returns the bbox area as a fraction of the page.
func (m ImageMetadata) NormalizedArea() float64 {
	w := m.BBox[2] - m.BBox[0]
	h := m.BBox[3] - m.BBox[1]
	return float64(w*h) / 1_000_000
}

// FigureID is the element's stable identifier, also its filename stem.
func (m ImageMetadata) FigureID() string {
	return fmt.Sprintf("%d_fig%d", m.PageNumber, m.FigNumber)
}

// ExtractedImage pairs element metadata with the cropped raster bytes.
type ExtractedImage struct {
	Meta ImageMetadata
	Data []byte
}

// Filename returns the deterministic on-disk name for the crop.
func (e ExtractedImage) Filename() string {
	return e.Meta.FigureID() + ".png"
}

// SaveTo writes the crop under imagesDir, creating parents as needed,
// and returns the written filename.
func (e ExtractedImage) SaveTo(imagesDir string) (string, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	name := e.Filename()
	if err := os.WriteFile(filepath.Join(imagesDir, name), e.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// RunTotals accumulates counters across a document run. Mutated only by
// the runner after each batch fully resolves.
type RunTotals struct {
	Pages           int
	Batches         int
	InputTokens     int
	OutputTokens    int
	ImagesExtracted int
	Elapsed         time.Duration
}
