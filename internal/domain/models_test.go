package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedArea(t *testing.T) {
	m := ImageMetadata{BBox: [4]int{0, 0, 1000, 1000}}
	assert.Equal(t, 1.0, m.NormalizedArea())

	m = ImageMetadata{BBox: [4]int{100, 100, 600, 600}}
	assert.InDelta(t, 0.25, m.NormalizedArea(), 1e-9)

	m = ImageMetadata{BBox: [4]int{500, 500, 500, 500}}
	assert.Zero(t, m.NormalizedArea())
}

func TestFigureIDAndFilename(t *testing.T) {
	m := ImageMetadata{PageNumber: 12, FigNumber: 3}
	assert.Equal(t, "12_fig3", m.FigureID())
	assert.Equal(t, "12_fig3.png", ExtractedImage{Meta: m}.Filename())
}

func TestSaveToCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	img := ExtractedImage{
		Meta: ImageMetadata{PageNumber: 1, FigNumber: 1},
		Data: []byte("png bytes"),
	}

	name, err := img.SaveTo(dir)
	require.NoError(t, err)
	assert.Equal(t, "1_fig1.png", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
}

func TestModelCallErrorMessages(t *testing.T) {
	exhausted := &ModelCallError{BatchNum: 2, Kind: CallExhausted, Status: 503}
	assert.Equal(t, "batch 3: max retries exceeded (last status 503)", exhausted.Error())

	fatal := &ModelCallError{BatchNum: 0, Kind: CallFatal, Err: errors.New("boom")}
	assert.Contains(t, fatal.Error(), "batch 1")
	assert.Contains(t, fatal.Error(), "boom")
}

func TestIsExhausted(t *testing.T) {
	inner := &ModelCallError{BatchNum: 1, Kind: CallExhausted, Status: 500}
	wrapped := fmt.Errorf("run failed: %w", inner)
	assert.True(t, IsExhausted(wrapped))

	assert.False(t, IsExhausted(&ModelCallError{Kind: CallFatal}))
	assert.False(t, IsExhausted(errors.New("other")))
	assert.False(t, IsExhausted(nil))
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	e := &StatusError{Code: 500, Body: string(long)}
	assert.Less(t, len(e.Error()), 250)
	assert.Contains(t, e.Error(), "api status 500")
}
