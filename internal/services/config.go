package services

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Lllllllleong/pdfreader/internal/gcp"
	"github.com/Lllllllleong/pdfreader/internal/ocr"
	"github.com/Lllllllleong/pdfreader/internal/textnorm"
)

// ExtractorConfig is the immutable configuration of one Extractor.
type ExtractorConfig struct {
	OCRBackend      string `validate:"oneof=tesseract vision gemini"`
	CredentialsFile string `validate:"required_if=OCRBackend vision"`
	ProjectID       string `validate:"required_if=OCRBackend gemini"`
	VertexAIRegion  string `validate:"required_if=OCRBackend gemini"`
	VertexAIModel   string `validate:"required_if=OCRBackend gemini"`

	RenderDPI    float64  `validate:"min=72,max=600"`
	OCRLanguages []string `validate:"min=1,dive,required"`

	TesseractPSM            int `validate:"min=0,max=13"`
	TesseractOEM            int `validate:"min=0,max=3"`
	TesseractMinXHeight     int `validate:"min=0"`
	TesseractPreserveSpaces bool

	MinTextLength     int    `validate:"min=0"`
	MaxImageDimension int    `validate:"min=100"`
	TextNormalizer    string `validate:"oneof=simple cjk"`
	PageWorkers       int    `validate:"min=1,max=32"`
	MaxUploadBytes    int64  `validate:"min=1"`
}

// NewDefaultExtractorConfig returns the configuration used when no
// environment overrides are present.
func NewDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		OCRBackend:              ocr.BackendVision,
		CredentialsFile:         "credentials.json",
		VertexAIRegion:          "us-central1",
		VertexAIModel:           "gemini-1.5-pro",
		RenderDPI:               300,
		OCRLanguages:            []string{"kor", "eng"},
		TesseractPSM:            3,
		TesseractOEM:            1,
		TesseractMinXHeight:     8,
		TesseractPreserveSpaces: true,
		MinTextLength:           50,
		MaxImageDimension:       3000,
		TextNormalizer:          textnorm.NameSimple,
		PageWorkers:             4,
		MaxUploadBytes:          32 << 20,
	}
}

func (c ExtractorConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid extractor configuration: %w", err)
	}
	return nil
}

// LoadExtractorConfig reads the configuration from the environment, after
// loading a .env file from the working directory if one exists.
func LoadExtractorConfig() (ExtractorConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ExtractorConfig{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	c := NewDefaultExtractorConfig()
	var errs []error
	envInt := func(key string, fallback int) int {
		raw := gcp.GetEnv(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return v
	}

	c.OCRBackend = gcp.GetEnv("OCR_BACKEND", c.OCRBackend)
	c.CredentialsFile = gcp.GetEnv("GOOGLE_CLOUD_CREDENTIALS_LOCATION", c.CredentialsFile)
	c.ProjectID = gcp.GetEnv("PROJECT_ID", c.ProjectID)
	c.VertexAIRegion = gcp.GetEnv("VERTEX_AI_REGION", c.VertexAIRegion)
	c.VertexAIModel = gcp.GetEnv("VERTEX_AI_MODEL", c.VertexAIModel)
	c.RenderDPI = float64(envInt("RENDER_DPI", int(c.RenderDPI)))
	if langs := gcp.GetEnv("OCR_LANGUAGES", ""); langs != "" {
		c.OCRLanguages = ocr.ParseLanguages(langs)
	}
	c.TesseractPSM = envInt("TESSERACT_PSM", c.TesseractPSM)
	c.TesseractOEM = envInt("TESSERACT_OEM", c.TesseractOEM)
	c.TesseractMinXHeight = envInt("TESSERACT_MIN_XHEIGHT", c.TesseractMinXHeight)
	if raw := gcp.GetEnv("TESSERACT_PRESERVE_SPACES", ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("TESSERACT_PRESERVE_SPACES: %w", err))
		} else {
			c.TesseractPreserveSpaces = v
		}
	}
	c.MinTextLength = envInt("MIN_TEXT_LENGTH", c.MinTextLength)
	c.MaxImageDimension = envInt("MAX_IMAGE_DIMENSION", c.MaxImageDimension)
	c.TextNormalizer = gcp.GetEnv("TEXT_NORMALIZER", c.TextNormalizer)
	c.PageWorkers = envInt("OCR_PAGE_WORKERS", c.PageWorkers)
	c.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))

	if len(errs) > 0 {
		return ExtractorConfig{}, fmt.Errorf("failed to parse configuration: %w", errors.Join(errs...))
	}
	if err := c.Validate(); err != nil {
		return ExtractorConfig{}, err
	}
	return c, nil
}
