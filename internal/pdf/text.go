package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	lpdf "github.com/ledongthuc/pdf"
)

// PageTexts returns the embedded text of every page in page order. A page
// whose content cannot be decoded contributes an empty string; only a
// failure to open the text layer at all is returned as an error.
func (d *Document) PageTexts(ctx context.Context) ([]string, error) {
	if d.repaired {
		return d.repairedPageTexts(ctx)
	}

	var reader *lpdf.Reader
	err := recoverPanic(func() error {
		var err error
		reader, err = lpdf.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open text layer: %w", err)
	}

	texts := make([]string, d.pageCount)
	numPages := min(reader.NumPage(), d.pageCount)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var text string
		err := recoverPanic(func() error {
			p := reader.Page(i)
			if p.V.IsNull() {
				return nil
			}
			// Font resource names are page scoped.
			fonts := make(map[string]*lpdf.Font)
			for _, name := range p.Fonts() {
				f := p.Font(name)
				fonts[name] = &f
			}
			var err error
			text, err = p.GetPlainText(fonts)
			return err
		})
		if err != nil {
			slog.Warn("Could not read text layer of page, treating it as empty.", "pageIndex", i-1, "error", err)
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// repairedPageTexts reads the text layer through MuPDF, whose object table
// is the only reliable view of a repaired document.
func (d *Document) repairedPageTexts(ctx context.Context) ([]string, error) {
	doc, err := d.rasterDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to open text layer: %w", err)
	}

	texts := make([]string, d.pageCount)
	for i := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var text string
		err := recoverPanic(func() error {
			var err error
			text, err = doc.Text(i)
			return err
		})
		if err != nil {
			slog.Warn("Could not read text layer of page, treating it as empty.", "pageIndex", i, "error", err)
			continue
		}
		texts[i] = text
	}
	return texts, nil
}
