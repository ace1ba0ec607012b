// Package pdf loads uploaded PDF bytes and exposes the two things the
// extraction pipeline needs from them: the embedded text layer and page
// bitmaps for OCR.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

func init() {
	// The functions runtime has a read-only $HOME.
	model.ConfigPath = "disable"
}

// Document is one uploaded PDF held in memory for the duration of a single
// extraction call.
type Document struct {
	data      []byte
	pageCount int

	// repaired is set when MuPDF rebuilt a damaged cross-reference table.
	// The text layer is then read through MuPDF too.
	repaired bool

	rasterMu  sync.Mutex
	raster    *fitz.Document
	rasterErr error
	closed    bool
}

// Load validates data as a PDF and counts its pages. A PDF whose structure
// is damaged is still accepted when MuPDF can repair it and load every page.
// Any other failure is a DocumentLoadError.
func Load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, models.DocumentLoadError("document is empty", nil)
	}

	var pageCount int
	err := recoverPanic(func() error {
		ctx, err := api.ReadContext(bytes.NewReader(data), relaxedConfig())
		if err != nil {
			return fmt.Errorf("failed to read PDF: %w", err)
		}
		if err := api.ValidateContext(ctx); err != nil {
			return fmt.Errorf("failed to validate PDF: %w", err)
		}
		pageCount = ctx.PageCount
		return nil
	})
	if err != nil {
		doc, repairErr := loadRepaired(data)
		if repairErr != nil {
			return nil, models.DocumentLoadError("failed to load PDF document", err)
		}
		slog.Warn("PDF structure is damaged, continuing with the repaired document.", "pageCount", doc.pageCount, "error", err)
		return doc, nil
	}
	if pageCount == 0 {
		return nil, models.DocumentLoadError("PDF document has no pages", nil)
	}

	return &Document{data: data, pageCount: pageCount}, nil
}

// loadRepaired opens data with MuPDF, which rebuilds broken xref tables by
// scanning for objects. The result is only trusted if every page loads.
func loadRepaired(data []byte) (*Document, error) {
	if !hasPDFHeader(data) {
		return nil, errors.New("missing %PDF header")
	}

	var raster *fitz.Document
	err := recoverPanic(func() error {
		var err error
		raster, err = fitz.NewFromMemory(data)
		if err != nil {
			if raster != nil && !errors.Is(err, fitz.ErrCreateContext) {
				_ = raster.Close()
			}
			raster = nil
			return err
		}
		if raster.NumPage() == 0 {
			return errors.New("no pages")
		}
		for i := 0; i < raster.NumPage(); i++ {
			if _, err := raster.Bound(i); err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		if raster != nil {
			_ = raster.Close()
		}
		return nil, err
	}
	return &Document{data: data, pageCount: raster.NumPage(), repaired: true, raster: raster}, nil
}

// hasPDFHeader allows leading junk before the header, as most readers do.
func hasPDFHeader(data []byte) bool {
	return bytes.Contains(data[:min(len(data), 1024)], []byte("%PDF-"))
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Close releases the renderer if one was opened. It is safe to call more than once.
func (d *Document) Close() error {
	d.rasterMu.Lock()
	defer d.rasterMu.Unlock()
	d.closed = true
	if d.raster == nil {
		return nil
	}
	err := d.raster.Close()
	d.raster = nil
	return err
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// recoverPanic runs fn and converts a panic from a PDF library into an error.
func recoverPanic(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()
	return fn()
}
