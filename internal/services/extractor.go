package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfreader/internal/imaging"
	"github.com/Lllllllleong/pdfreader/internal/models"
	"github.com/Lllllllleong/pdfreader/internal/ocr"
	"github.com/Lllllllleong/pdfreader/internal/pdf"
	"github.com/Lllllllleong/pdfreader/internal/textnorm"
)

// pageSeparator goes between the text of two non-empty pages.
const pageSeparator = "\n\n"

// Document is a loaded PDF as the extractor sees it.
type Document interface {
	PageCount() int
	PageTexts(ctx context.Context) ([]string, error)
	Render(ctx context.Context, pageIndex int, dpi float64) (*models.RasterImage, error)
	Close() error
}

// DocumentLoader parses raw bytes into a Document.
type DocumentLoader func(data []byte) (Document, error)

// Extractor turns PDF bytes into normalized text, using the embedded text
// layer when it is sufficient and page-by-page OCR otherwise.
type Extractor struct {
	config       ExtractorConfig
	load         DocumentLoader
	backend      ocr.Backend
	preprocessor *imaging.Preprocessor
	normalizer   textnorm.Normalizer
	logger       *slog.Logger
}

type ExtractorOption func(*Extractor)

// WithLogger replaces slog.Default as the extractor's logger.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = logger }
}

// WithBackend overrides the OCR backend selected by the configuration.
func WithBackend(backend ocr.Backend) ExtractorOption {
	return func(e *Extractor) { e.backend = backend }
}

// WithDocumentLoader overrides the PDF loader.
func WithDocumentLoader(load DocumentLoader) ExtractorOption {
	return func(e *Extractor) { e.load = load }
}

// WithNormalizer overrides the normalizer selected by the configuration.
func WithNormalizer(n textnorm.Normalizer) ExtractorOption {
	return func(e *Extractor) { e.normalizer = n }
}

func NewExtractor(config ExtractorConfig, opts ...ExtractorOption) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := textnorm.New(config.TextNormalizer, nil)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		config:       config,
		load:         loadPDF,
		preprocessor: imaging.NewPreprocessor(config.MaxImageDimension),
		normalizer:   normalizer,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = newOCRBackend(config)
	}
	return e, nil
}

func loadPDF(data []byte) (Document, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func newOCRBackend(c ExtractorConfig) ocr.Backend {
	switch c.OCRBackend {
	case ocr.BackendTesseract:
		return ocr.NewTesseractBackend(ocr.TesseractConfig{
			Languages:      c.OCRLanguages,
			PageSegMode:    c.TesseractPSM,
			EngineMode:     c.TesseractOEM,
			MinXHeight:     c.TesseractMinXHeight,
			PreserveSpaces: c.TesseractPreserveSpaces,
		})
	case ocr.BackendGemini:
		return ocr.NewGeminiBackend(ocr.GeminiConfig{
			ProjectID: c.ProjectID,
			Region:    c.VertexAIRegion,
			Model:     c.VertexAIModel,
		})
	default:
		return ocr.NewVisionBackend(ocr.VisionConfig{
			CredentialsFile: c.CredentialsFile,
			Languages:       c.OCRLanguages,
		})
	}
}

// IsSufficient reports whether natively extracted text can be used without
// OCR: after trimming it must be non-empty and at least minLength runes.
func IsSufficient(text string, minLength int) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && utf8.RuneCountInString(trimmed) >= minLength
}

// Extract returns the normalized text of a PDF.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	report, err := e.ExtractWithReport(ctx, data)
	if err != nil {
		return "", err
	}
	return report.Text, nil
}

// ExtractWithReport is Extract plus how the text was obtained. Only a load
// failure, an unavailable OCR backend or cancellation fail the call; pages
// that cannot be rendered or recognized are listed in FailedPages.
func (e *Extractor) ExtractWithReport(ctx context.Context, data []byte) (*models.ExtractionReport, error) {
	doc, err := e.load(data)
	if err != nil {
		if !models.IsKind(err, models.KindDocumentLoad) {
			err = models.DocumentLoadError("failed to load PDF document", err)
		}
		e.logger.Error("Failed to load document.", "error", err)
		return nil, err
	}
	defer doc.Close()

	logCtx := e.logger.With("pageCount", doc.PageCount())
	logCtx.Info("Document loaded.")

	native := e.nativeText(ctx, logCtx, doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if IsSufficient(native, e.config.MinTextLength) {
		logCtx.Info("Native text is sufficient, skipping OCR.", "chars", utf8.RuneCountInString(native))
		return &models.ExtractionReport{
			Text:      e.normalizer.Normalize(native),
			Method:    models.MethodNative,
			PageCount: doc.PageCount(),
		}, nil
	}

	logCtx.Info("Native text is insufficient, falling back to OCR.", "backend", e.backend.Name(), "minTextLength", e.config.MinTextLength)
	return e.ocrDocument(ctx, logCtx, doc)
}

// nativeText joins the embedded text of all pages. A document whose text
// layer cannot be read yields "" so that OCR takes over.
func (e *Extractor) nativeText(ctx context.Context, logCtx *slog.Logger, doc Document) string {
	texts, err := doc.PageTexts(ctx)
	if err != nil {
		logCtx.Warn("Native text extraction failed, treating document as having no text.", "error", err)
		return ""
	}
	return strings.Join(texts, pageSeparator)
}

func (e *Extractor) ocrDocument(ctx context.Context, logCtx *slog.Logger, doc Document) (*models.ExtractionReport, error) {
	session, err := e.backend.Open(ctx)
	if err != nil {
		logCtx.Error("OCR backend unavailable.", "backend", e.backend.Name(), "error", err)
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logCtx.Warn("Failed to close OCR session.", "error", err)
		}
	}()

	pageCount := doc.PageCount()
	pages := make([]string, pageCount)
	failed := make([]bool, pageCount)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.config.PageWorkers)
	for i := 0; i < pageCount; i++ {
		eg.Go(func() error {
			text, err := e.ocrPage(gctx, session, doc, i)
			if err != nil {
				if models.IsFatal(err) || gctx.Err() != nil {
					return fmt.Errorf("page %d: %w", i+1, err)
				}
				logCtx.Warn("Page OCR failed, page contributes no text.", "pageIndex", i, "error", err)
				failed[i] = true
				return nil
			}
			pages[i] = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("OCR aborted.", "error", err)
		return nil, err
	}

	report := &models.ExtractionReport{
		Text:      e.normalizer.Normalize(joinPages(pages)),
		Method:    models.MethodOCR,
		PageCount: pageCount,
	}
	for i, f := range failed {
		if f {
			report.FailedPages = append(report.FailedPages, i)
		}
	}
	logCtx.Info("OCR finished.", "failedPages", report.FailedPages, "chars", utf8.RuneCountInString(report.Text))
	return report, nil
}

// ocrPage renders, optionally preprocesses and recognizes one page, then
// normalizes the result.
func (e *Extractor) ocrPage(ctx context.Context, session ocr.Session, doc Document, pageIndex int) (string, error) {
	img, err := doc.Render(ctx, pageIndex, e.config.RenderDPI)
	if err != nil {
		return "", err
	}
	if e.backend.Preprocess() {
		img = e.preprocessor.Preprocess(img)
	}
	raw, err := session.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	return e.normalizer.Normalize(raw), nil
}

// joinPages concatenates page texts in index order, skipping empty pages.
func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(pageSeparator)
		}
		b.WriteString(p)
	}
	return b.String()
}
