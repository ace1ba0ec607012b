package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfreader/internal/models"
	"github.com/Lllllllleong/pdfreader/internal/pdf/pdftest"
	"github.com/Lllllllleong/pdfreader/internal/textnorm"
)

func testConfig() ExtractorConfig {
	c := NewDefaultExtractorConfig()
	c.PageWorkers = 4
	return c
}

func newTestExtractor(t *testing.T, c ExtractorConfig, doc *fakeDocument, backend *fakeBackend) *Extractor {
	t.Helper()
	opts := []ExtractorOption{WithLogger(discardLogger()), WithBackend(backend)}
	if doc != nil {
		opts = append(opts, WithDocumentLoader(loaderFor(doc)))
	}
	e, err := NewExtractor(c, opts...)
	require.NoError(t, err)
	return e
}

func TestIsSufficient(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  int
		want bool
	}{
		{"empty", "", 50, false},
		{"blank", " \n\t ", 50, false},
		{"blank with zero threshold", "   ", 0, false},
		{"one short", strings.Repeat("a", 49), 50, false},
		{"exactly threshold", strings.Repeat("a", 50), 50, true},
		{"padding does not count", "   " + strings.Repeat("a", 49) + "\n\n", 50, false},
		{"runes not bytes", strings.Repeat("가", 50), 50, true},
		{"short hangul", strings.Repeat("가", 20), 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSufficient(tt.text, tt.min))
		})
	}
}

func TestExtractNativeSkipsOCR(t *testing.T) {
	long := strings.Repeat("Native text that is long enough. ", 3)
	doc := &fakeDocument{texts: []string{long + "  \n\n\n\n", "second page"}}
	backend := &fakeBackend{}
	e := newTestExtractor(t, testConfig(), doc, backend)

	report, err := e.ExtractWithReport(context.Background(), []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, models.MethodNative, report.Method)
	assert.Equal(t, strings.TrimSpace(long)+"\n\nsecond page", report.Text)
	assert.Equal(t, 2, report.PageCount)
	assert.Zero(t, backend.opens.Load(), "OCR must not run when native text suffices")
	assert.Empty(t, doc.rendered)
	assert.True(t, doc.closed)
}

func TestExtractFallsBackToOCRForEveryPage(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", "  ", ""}}
	backend := &fakeBackend{texts: map[int]string{0: "first", 1: "second", 2: "third"}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	report, err := e.ExtractWithReport(context.Background(), []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, models.MethodOCR, report.Method)
	assert.Equal(t, "first\n\nsecond\n\nthird", report.Text)
	assert.Equal(t, int32(1), backend.opens.Load(), "one session per document")
	assert.Equal(t, int32(1), backend.closes.Load())
	assert.Equal(t, int32(3), backend.calls.Load())
	assert.ElementsMatch(t, []int{0, 1, 2}, doc.rendered)
	assert.Empty(t, report.FailedPages)
}

func TestExtractShortNativeTextUsesOCR(t *testing.T) {
	doc := &fakeDocument{texts: []string{"Page 1"}}
	backend := &fakeBackend{texts: map[int]string{0: "Page 1 with the scanned body text"}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	text, err := e.Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Page 1 with the scanned body text", text)
}

func TestExtractNativeReadFailureUsesOCR(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", ""}, textsErr: errors.New("broken text layer")}
	backend := &fakeBackend{texts: map[int]string{0: "a", 1: "b"}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	text, err := e.Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", text)
}

func TestExtractScannedTwoPages(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", ""}}
	backend := &fakeBackend{texts: map[int]string{
		0: "  Scanned page one  \n\n\n\nsecond paragraph ",
		1: "\nScanned page two\n",
	}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	text, err := e.Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Scanned page one\n\nsecond paragraph\n\nScanned page two", text)
}

func TestExtractKeepsPageOrder(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", "", "", ""}}
	backend := &fakeBackend{
		texts: map[int]string{0: "zero", 1: "one", 2: "two", 3: "three"},
		delays: map[int]time.Duration{
			0: 60 * time.Millisecond,
			1: 40 * time.Millisecond,
			2: 20 * time.Millisecond,
		},
	}
	e := newTestExtractor(t, testConfig(), doc, backend)

	text, err := e.Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, "zero\n\none\n\ntwo\n\nthree", text)
	assert.NotEqual(t, []int{0, 1, 2, 3}, backend.finished, "pages should have completed out of order")
}

func TestExtractPageFailureIsAbsorbed(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", "", ""}}
	backend := &fakeBackend{
		texts: map[int]string{0: "page one", 2: "page three"},
		errs:  map[int]error{1: models.VisionServiceError("Cloud Vision error 3: Bad image data.", nil)},
	}
	e := newTestExtractor(t, testConfig(), doc, backend)

	report, err := e.ExtractWithReport(context.Background(), []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, "page one\n\npage three", report.Text)
	assert.Equal(t, []int{1}, report.FailedPages)
	assert.Equal(t, int32(3), backend.calls.Load(), "processing continues after a failed page")
}

func TestExtractRenderFailureIsAbsorbed(t *testing.T) {
	doc := &fakeDocument{
		texts:      []string{"", ""},
		renderErrs: map[int]error{0: models.RenderError("failed to render page 1", nil)},
	}
	backend := &fakeBackend{texts: map[int]string{0: "never", 1: "page two"}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	report, err := e.ExtractWithReport(context.Background(), []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, "page two", report.Text)
	assert.Equal(t, []int{0}, report.FailedPages)
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestExtractAllPagesEmpty(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", ""}}
	backend := &fakeBackend{}
	e := newTestExtractor(t, testConfig(), doc, backend)

	report, err := e.ExtractWithReport(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Empty(t, report.Text)
	assert.Empty(t, report.FailedPages)
}

func TestExtractBackendUnavailableOnOpen(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", ""}}
	backend := &fakeBackend{openErr: models.BackendUnavailableError("no credentials", nil)}
	e := newTestExtractor(t, testConfig(), doc, backend)

	_, err := e.Extract(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindBackendUnavailable))
	assert.Empty(t, doc.rendered)
	assert.True(t, doc.closed)
}

func TestExtractBackendUnavailableMidDocument(t *testing.T) {
	c := testConfig()
	c.PageWorkers = 1
	doc := &fakeDocument{texts: []string{"", "", "", ""}}
	backend := &fakeBackend{
		texts: map[int]string{0: "ok"},
		errs:  map[int]error{1: models.BackendUnavailableError("credentials revoked", nil)},
	}
	e := newTestExtractor(t, c, doc, backend)

	_, err := e.Extract(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.True(t, models.IsFatal(err))
	assert.Less(t, backend.calls.Load(), int32(4), "remaining pages are not recognized")
	assert.Equal(t, int32(1), backend.closes.Load())
}

func TestExtractCancelled(t *testing.T) {
	doc := &fakeDocument{texts: []string{""}}
	backend := &fakeBackend{delays: map[int]time.Duration{0: time.Minute}}
	e := newTestExtractor(t, testConfig(), doc, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Extract(ctx, []byte("pdf"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractPreprocessesForLocalEngines(t *testing.T) {
	doc := &fakeDocument{texts: []string{"", ""}}

	local := &fakeBackend{preprocess: true}
	_, err := newTestExtractor(t, testConfig(), doc, local).Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.ColorModeGray, local.modes[0])

	cloud := &fakeBackend{preprocess: false}
	_, err = newTestExtractor(t, testConfig(), doc, cloud).Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.ColorModeRGBA, cloud.modes[0])
}

func TestExtractUsesConfiguredNormalizer(t *testing.T) {
	c := testConfig()
	c.TextNormalizer = textnorm.NameCJK
	doc := &fakeDocument{texts: []string{""}}
	backend := &fakeBackend{texts: map[int]string{0: "성장률 12 % 달성\n했습니다 ."}}
	e := newTestExtractor(t, c, doc, backend)

	text, err := e.Extract(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "성장률 12% 달성했습니다.", text)
}

func TestExtractLoadErrors(t *testing.T) {
	t.Run("invalid bytes", func(t *testing.T) {
		backend := &fakeBackend{}
		e := newTestExtractor(t, testConfig(), nil, backend)

		text, err := e.Extract(context.Background(), []byte("%PDF-garbage that is not a document"))
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindDocumentLoad))
		assert.Empty(t, text)
		assert.Zero(t, backend.opens.Load())
	})

	t.Run("loader error is classified", func(t *testing.T) {
		e, err := NewExtractor(testConfig(),
			WithLogger(discardLogger()),
			WithBackend(&fakeBackend{}),
			WithDocumentLoader(func([]byte) (Document, error) { return nil, errors.New("boom") }))
		require.NoError(t, err)

		_, err = e.Extract(context.Background(), nil)
		assert.True(t, models.IsKind(err, models.KindDocumentLoad))
	})
}

func TestExtractRealPDF(t *testing.T) {
	t.Run("embedded text is returned without OCR", func(t *testing.T) {
		c := testConfig()
		c.MinTextLength = 40
		backend := &fakeBackend{}
		e := newTestExtractor(t, c, nil, backend)

		data := pdftest.Build(pdftest.Page{"Hello, PDF Reader!", "This is a test PDF file."})
		text, err := e.Extract(context.Background(), data)
		require.NoError(t, err)

		assert.Equal(t, "Hello, PDF Reader!\nThis is a test PDF file.", text)
		assert.Zero(t, backend.opens.Load())
	})

	t.Run("short embedded text falls back to OCR", func(t *testing.T) {
		backend := &fakeBackend{texts: map[int]string{0: "ocr one", 1: "ocr two"}}
		e := newTestExtractor(t, testConfig(), nil, backend)

		data := pdftest.Build(pdftest.Page{"Hello, PDF Reader!", "This is a test PDF file."}, pdftest.Page{})
		report, err := e.ExtractWithReport(context.Background(), data)
		require.NoError(t, err)

		assert.Equal(t, models.MethodOCR, report.Method)
		assert.Equal(t, "ocr one\n\nocr two", report.Text)
	})
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	c := testConfig()
	c.TextNormalizer = "fancy"
	_, err := NewExtractor(c)
	assert.Error(t, err)
}
