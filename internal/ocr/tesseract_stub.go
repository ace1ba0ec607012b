//go:build !ocr

package ocr

import (
	"context"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

// TesseractBackend is unavailable in builds without the ocr tag.
type TesseractBackend struct {
	config TesseractConfig
}

func NewTesseractBackend(config TesseractConfig) *TesseractBackend {
	return &TesseractBackend{config: config}
}

func (b *TesseractBackend) Name() string     { return BackendTesseract }
func (b *TesseractBackend) Preprocess() bool { return true }

func (b *TesseractBackend) Open(ctx context.Context) (Session, error) {
	return nil, models.BackendUnavailableError("tesseract support not compiled in; rebuild with -tags ocr", nil)
}
