//go:build ocr

package ocr

import (
	"context"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfreader/internal/imaging"
	"github.com/Lllllllleong/pdfreader/internal/models"
	"github.com/Lllllllleong/pdfreader/internal/pdf"
	"github.com/Lllllllleong/pdfreader/internal/pdf/pdftest"
)

func requireEnglish(t *testing.T) {
	t.Helper()
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil || !slices.Contains(langs, "eng") {
		t.Skip("tesseract with eng trained data is not installed")
	}
}

func TestTesseractRecognize(t *testing.T) {
	requireEnglish(t)

	doc, err := pdf.Load(pdftest.Build(pdftest.Page{"HELLO TESSERACT"}))
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.Render(context.Background(), 0, 300)
	require.NoError(t, err)
	page = imaging.NewPreprocessor(0).Preprocess(page)

	scratch := t.TempDir()
	backend := NewTesseractBackend(TesseractConfig{
		Languages:      []string{"eng"},
		PageSegMode:    3,
		EngineMode:     1,
		MinXHeight:     8,
		PreserveSpaces: true,
		ScratchDir:     scratch,
	})
	session, err := backend.Open(context.Background())
	require.NoError(t, err)
	defer session.Close()

	text, err := session.Recognize(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(text), "HELLO")

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files must be removed")
}

func TestTesseractMissingLanguage(t *testing.T) {
	requireEnglish(t)

	backend := NewTesseractBackend(TesseractConfig{Languages: []string{"xx_not_a_language"}})
	_, err := backend.Open(context.Background())
	assert.True(t, models.IsKind(err, models.KindBackendUnavailable))
}
