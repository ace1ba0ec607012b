// Package ocr adapts OCR engines to a single page-recognition interface.
//
// A Backend is chosen once per deployment. For every document that needs OCR
// the caller opens one Session, recognizes its pages through it (possibly
// from several goroutines) and closes it.
package ocr

import (
	"context"
	"strings"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

const (
	BackendTesseract = "tesseract"
	BackendVision    = "vision"
	BackendGemini    = "gemini"
)

// Backend is a configured OCR engine.
type Backend interface {
	Name() string
	// Preprocess reports whether page images should go through the image
	// preprocessor before recognition.
	Preprocess() bool
	// Open acquires credentials and clients for one document. Failures are
	// BackendUnavailableErrors.
	Open(ctx context.Context) (Session, error)
}

// Session recognizes pages of one document.
type Session interface {
	// Recognize returns the raw text on img. An image without text yields
	// "" and no error.
	Recognize(ctx context.Context, img *models.RasterImage) (string, error)
	Close() error
}

// ParseLanguages splits a tesseract style language list such as "kor+eng".
func ParseLanguages(s string) []string {
	var langs []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

var bcp47 = map[string]string{
	"kor":     "ko",
	"eng":     "en",
	"jpn":     "ja",
	"chi_sim": "zh",
	"chi_tra": "zh-Hant",
	"deu":     "de",
	"fra":     "fr",
	"spa":     "es",
}

// languageHints converts tesseract language codes to the BCP-47 hints cloud
// services expect. Two-letter codes pass through; unknown codes are dropped.
func languageHints(langs []string) []string {
	var hints []string
	seen := make(map[string]bool)
	for _, l := range langs {
		hint, ok := bcp47[l]
		if !ok {
			if len(l) != 2 {
				continue
			}
			hint = l
		}
		if !seen[hint] {
			seen[hint] = true
			hints = append(hints, hint)
		}
	}
	return hints
}
