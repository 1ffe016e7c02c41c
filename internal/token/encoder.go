// Package token estimates the model-facing token cost of prompt inputs.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TileSize is the edge length in pixels of one vision token tile.
const TileSize = 28

// ImageTokens returns the approximate token cost of an image with the
// given pixel dimensions under tile quantization: each full TileSize
// square costs one token, partial tiles cost nothing.
func ImageTokens(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return (width / TileSize) * (height / TileSize)
}

// TextEncoder counts tokens in text. The streaming text call uses it to
// keep a live output-token estimate as deltas arrive.
type TextEncoder interface {
	Count(text string) (int, error)
}

// Tiktoken counts tokens with a tiktoken BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken builds an encoder for the given model name (e.g. "gpt-4").
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer for %s: %w", model, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}
