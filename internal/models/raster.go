package models

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// ColorMode describes the pixel layout of a RasterImage.
type ColorMode int

const (
	ColorModeRGBA ColorMode = iota
	ColorModeGray
	ColorModeOther
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeRGBA:
		return "rgba"
	case ColorModeGray:
		return "gray"
	default:
		return "other"
	}
}

// RasterImage is a rendered page bitmap. It is handed from the rasterizer to
// the preprocessor to the OCR session and is never shared between pages.
type RasterImage struct {
	PageIndex int
	DPI       float64
	Image     image.Image
}

func (r *RasterImage) Width() int {
	return r.Image.Bounds().Dx()
}

func (r *RasterImage) Height() int {
	return r.Image.Bounds().Dy()
}

func (r *RasterImage) Mode() ColorMode {
	switch r.Image.(type) {
	case *image.RGBA:
		return ColorModeRGBA
	case *image.Gray:
		return ColorModeGray
	default:
		return ColorModeOther
	}
}

// PNG encodes the bitmap for engines that take encoded image bytes.
func (r *RasterImage) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Image); err != nil {
		return nil, fmt.Errorf("failed to encode page %d as PNG: %w", r.PageIndex+1, err)
	}
	return buf.Bytes(), nil
}
