package ocr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

func testImage(pageIndex int) *models.RasterImage {
	return &models.RasterImage{PageIndex: pageIndex, DPI: 72, Image: image.NewGray(image.Rect(0, 0, 8, 8))}
}

func TestParseLanguages(t *testing.T) {
	assert.Equal(t, []string{"kor", "eng"}, ParseLanguages("kor+eng"))
	assert.Equal(t, []string{"eng"}, ParseLanguages(" eng + "))
	assert.Nil(t, ParseLanguages(""))
}

func TestLanguageHints(t *testing.T) {
	assert.Equal(t, []string{"ko", "en"}, languageHints([]string{"kor", "eng"}))
	assert.Equal(t, []string{"zh", "ja"}, languageHints([]string{"chi_sim", "jpn"}))
	assert.Equal(t, []string{"fr", "nl"}, languageHints([]string{"fra", "osd", "nl", "fr"}))
	assert.Nil(t, languageHints(nil))
}
