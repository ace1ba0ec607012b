package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

// Render rasterizes one page at the given DPI. Failures are RenderErrors.
// Calls may come from several goroutines; MuPDF access is serialized by go-fitz.
func (d *Document) Render(ctx context.Context, pageIndex int, dpi float64) (*models.RasterImage, error) {
	if pageIndex < 0 || pageIndex >= d.pageCount {
		return nil, models.RenderError(fmt.Sprintf("page index %d out of range [0,%d)", pageIndex, d.pageCount), nil)
	}
	if dpi <= 0 {
		return nil, models.RenderError(fmt.Sprintf("invalid DPI %v", dpi), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := d.rasterDocument()
	if err != nil {
		return nil, models.RenderError("failed to open document for rendering", err)
	}

	var rendered *models.RasterImage
	err = recoverPanic(func() error {
		img, err := doc.ImageDPI(pageIndex, dpi)
		if err != nil {
			return err
		}
		rendered = &models.RasterImage{PageIndex: pageIndex, DPI: dpi, Image: img}
		return nil
	})
	if err != nil {
		return nil, models.RenderError(fmt.Sprintf("failed to render page %d", pageIndex+1), err)
	}
	return rendered, nil
}

func (d *Document) rasterDocument() (*fitz.Document, error) {
	d.rasterMu.Lock()
	defer d.rasterMu.Unlock()
	if d.closed {
		return nil, errors.New("document is closed")
	}
	if d.raster == nil && d.rasterErr == nil {
		d.raster, d.rasterErr = fitz.NewFromMemory(d.data)
	}
	return d.raster, d.rasterErr
}
