package services

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/pdfreader/internal/models"
	"github.com/Lllllllleong/pdfreader/internal/ocr"
)

// fakeDocument is an in-memory Document. Its page count is len(texts).
type fakeDocument struct {
	texts      []string
	textsErr   error
	renderErrs map[int]error

	mu       sync.Mutex
	rendered []int
	closed   bool
}

func (d *fakeDocument) PageCount() int { return len(d.texts) }

func (d *fakeDocument) PageTexts(ctx context.Context) ([]string, error) {
	if d.textsErr != nil {
		return nil, d.textsErr
	}
	return d.texts, nil
}

func (d *fakeDocument) Render(ctx context.Context, pageIndex int, dpi float64) (*models.RasterImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.rendered = append(d.rendered, pageIndex)
	d.mu.Unlock()
	if err := d.renderErrs[pageIndex]; err != nil {
		return nil, err
	}
	return &models.RasterImage{PageIndex: pageIndex, DPI: dpi, Image: image.NewRGBA(image.Rect(0, 0, 20, 20))}, nil
}

func (d *fakeDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func loaderFor(doc *fakeDocument) DocumentLoader {
	return func([]byte) (Document, error) { return doc, nil }
}

// fakeBackend answers Recognize from per-page tables.
type fakeBackend struct {
	preprocess bool
	openErr    error
	texts      map[int]string
	errs       map[int]error
	delays     map[int]time.Duration

	opens    atomic.Int32
	closes   atomic.Int32
	calls    atomic.Int32
	mu       sync.Mutex
	modes    map[int]models.ColorMode
	finished []int
}

var _ ocr.Backend = (*fakeBackend)(nil)

func (b *fakeBackend) Name() string     { return "fake" }
func (b *fakeBackend) Preprocess() bool { return b.preprocess }

func (b *fakeBackend) Open(ctx context.Context) (ocr.Session, error) {
	b.opens.Add(1)
	if b.openErr != nil {
		return nil, b.openErr
	}
	return &fakeSession{b: b}, nil
}

type fakeSession struct {
	b *fakeBackend
}

func (s *fakeSession) Recognize(ctx context.Context, img *models.RasterImage) (string, error) {
	b := s.b
	b.calls.Add(1)
	if d := b.delays[img.PageIndex]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	b.mu.Lock()
	if b.modes == nil {
		b.modes = make(map[int]models.ColorMode)
	}
	b.modes[img.PageIndex] = img.Mode()
	b.finished = append(b.finished, img.PageIndex)
	b.mu.Unlock()
	if err := b.errs[img.PageIndex]; err != nil {
		return "", err
	}
	return b.texts[img.PageIndex], nil
}

func (s *fakeSession) Close() error {
	s.b.closes.Add(1)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}
