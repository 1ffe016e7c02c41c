package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagemill/pagemill/internal/domain"
)

// ValidatePath checks that path points to a readable, non-empty PDF file.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &domain.RasterizationError{Path: path, Err: fmt.Errorf("file path is empty")}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.RasterizationError{Path: path, Err: fmt.Errorf("file does not exist")}
		}
		return &domain.RasterizationError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &domain.RasterizationError{Path: path, Err: fmt.Errorf("path is a directory")}
	}
	if info.Size() == 0 {
		return &domain.RasterizationError{Path: path, Err: fmt.Errorf("file is empty")}
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return &domain.RasterizationError{Path: path, Err: fmt.Errorf("not a PDF (extension %q)", ext)}
	}

	f, err := os.Open(path)
	if err != nil {
		return &domain.RasterizationError{Path: path, Err: fmt.Errorf("cannot open: %w", err)}
	}
	f.Close()
	return nil
}
