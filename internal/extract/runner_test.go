package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/config"
	"github.com/pagemill/pagemill/internal/domain"
)

func TestRunnerRejectsMissingPDF(t *testing.T) {
	r := NewRunner(config.DefaultConfig(), nil, zerolog.Nop())

	_, err := r.Run(context.Background(), RunOptions{
		PDFPath: filepath.Join(t.TempDir(), "missing.pdf"),
	})

	var re *domain.RasterizationError
	require.ErrorAs(t, err, &re)
}

func TestRunnerRejectsStartPastEnd(t *testing.T) {
	pdfPath := writeSamplePDF(t, t.TempDir(), 2)
	r := NewRunner(config.DefaultConfig(), nil, zerolog.Nop())

	_, err := r.Run(context.Background(), RunOptions{
		PDFPath:   pdfPath,
		StartPage: 5,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages")
}
