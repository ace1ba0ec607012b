//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/otiai10/gosseract/v2"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

// TesseractBackend recognizes pages with a local Tesseract installation.
type TesseractBackend struct {
	config TesseractConfig
}

func NewTesseractBackend(config TesseractConfig) *TesseractBackend {
	return &TesseractBackend{config: config}
}

func (b *TesseractBackend) Name() string     { return BackendTesseract }
func (b *TesseractBackend) Preprocess() bool { return true }

// Open checks that every configured language has trained data installed.
func (b *TesseractBackend) Open(ctx context.Context) (Session, error) {
	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, models.BackendUnavailableError("failed to list tesseract languages", err)
	}
	for _, lang := range b.config.Languages {
		if !slices.Contains(available, lang) {
			return nil, models.BackendUnavailableError(fmt.Sprintf("tesseract language %q is not installed", lang), nil)
		}
	}
	return &tesseractSession{config: b.config}, nil
}

// tesseractSession creates a client per page; gosseract clients are not
// safe for concurrent use.
type tesseractSession struct {
	config TesseractConfig
}

func (s *tesseractSession) Recognize(ctx context.Context, img *models.RasterImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	png, err := img.PNG()
	if err != nil {
		return "", models.RecognitionError("failed to encode page image", err)
	}

	var text string
	err = withScratchDir(s.config.ScratchDir, "tesseract-page-*", func(dir string) error {
		imagePath := filepath.Join(dir, "page.png")
		if err := os.WriteFile(imagePath, png, 0o600); err != nil {
			return models.RecognitionError("failed to write page image", err)
		}
		configPath := filepath.Join(dir, "ocr.config")
		if err := os.WriteFile(configPath, []byte(s.config.configFile()), 0o600); err != nil {
			return models.RecognitionError("failed to write tesseract config", err)
		}

		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetConfigFile(configPath); err != nil {
			return models.RecognitionError("failed to set tesseract config", err)
		}
		if err := client.SetLanguage(s.config.Languages...); err != nil {
			return models.RecognitionError("failed to set tesseract languages", err)
		}
		if err := client.SetPageSegMode(gosseract.PageSegMode(s.config.PageSegMode)); err != nil {
			return models.RecognitionError("failed to set page segmentation mode", err)
		}
		if err := client.SetImage(imagePath); err != nil {
			return models.RecognitionError("failed to load page image", err)
		}

		out, err := client.Text()
		if err != nil {
			return models.RecognitionError("tesseract recognition failed", err)
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		slog.Warn("No text detected on page.", "backend", BackendTesseract, "pageIndex", img.PageIndex)
	}
	return text, nil
}

func (s *tesseractSession) Close() error { return nil }
