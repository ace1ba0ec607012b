package ocr

import (
	"fmt"
	"os"
)

// withScratchDir runs fn with a fresh temporary directory under root (the
// system temp dir when empty). The directory and everything in it is
// removed when fn returns, fails or panics.
func withScratchDir(root, pattern string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}
