package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageTokens(t *testing.T) {
	// One 28x28 tile.
	assert.Equal(t, 1, ImageTokens(28, 28))
	// 850x1100 at the default render settings.
	assert.Equal(t, (850/28)*(1100/28), ImageTokens(850, 1100))
}

func TestImageTokensGrowWithDimensions(t *testing.T) {
	small := ImageTokens(280, 280)
	large := ImageTokens(560, 560)
	assert.Greater(t, large, small)
}

func TestImageTokensInvalidDimensions(t *testing.T) {
	assert.Zero(t, ImageTokens(0, 100))
	assert.Zero(t, ImageTokens(100, 0))
	assert.Zero(t, ImageTokens(-28, 28))
}
