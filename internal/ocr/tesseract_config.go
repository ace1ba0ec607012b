package ocr

import (
	"fmt"
	"strings"
)

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	Languages      []string
	PageSegMode    int
	EngineMode     int
	MinXHeight     int
	PreserveSpaces bool
	// ScratchDir is where per-page temporary directories are created.
	// Empty means the system temp dir.
	ScratchDir string
}

// configFile renders the tesseract config file for this configuration.
// Engine mode can only be set at initialisation, so it goes here with the
// tuning variables instead of through SetVariable.
func (c TesseractConfig) configFile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tessedit_ocr_engine_mode %d\n", c.EngineMode)
	if c.MinXHeight > 0 {
		fmt.Fprintf(&b, "textord_min_xheight %d\n", c.MinXHeight)
	}
	preserve := 0
	if c.PreserveSpaces {
		preserve = 1
	}
	fmt.Fprintf(&b, "preserve_interword_spaces %d\n", preserve)
	return b.String()
}
