package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/domain"
)

func TestValidatePathAcceptsRealPDF(t *testing.T) {
	path := writeSamplePDF(t, t.TempDir(), 1)
	assert.NoError(t, ValidatePath(path))
}

func TestValidatePathRejections(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o644))

	cases := map[string]string{
		"empty path":   "",
		"missing file": filepath.Join(dir, "nope.pdf"),
		"directory":    dir,
		"empty file":   empty,
		"wrong suffix": notPDF,
	}
	for name, path := range cases {
		err := ValidatePath(path)
		var re *domain.RasterizationError
		assert.ErrorAs(t, err, &re, name)
	}
}
