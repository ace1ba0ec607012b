// Package imaging prepares rendered page bitmaps for local OCR engines.
package imaging

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

// DefaultMaxDimension bounds the longer side of an image handed to OCR.
const DefaultMaxDimension = 3000

// Preprocessor runs downscale, grayscale, contrast stretch and a 3x3 median
// filter, in that order. It never modifies its input.
type Preprocessor struct {
	MaxDimension int
}

// NewPreprocessor returns a Preprocessor bounded to maxDimension pixels.
// A non-positive value selects DefaultMaxDimension.
func NewPreprocessor(maxDimension int) *Preprocessor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Preprocessor{MaxDimension: maxDimension}
}

// Preprocess returns a new grayscale RasterImage for the same page.
func (p *Preprocessor) Preprocess(in *models.RasterImage) *models.RasterImage {
	img := Downscale(in.Image, p.MaxDimension)
	gray := Grayscale(img)
	StretchContrast(gray)
	gray = MedianFilter(gray)

	return &models.RasterImage{PageIndex: in.PageIndex, DPI: in.DPI, Image: gray}
}

// Downscale shrinks img so neither side exceeds maxDim, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	var targetW, targetH int
	if w >= h {
		targetW = maxDim
		targetH = max(1, h*maxDim/w)
	} else {
		targetH = maxDim
		targetW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Grayscale converts img to a single-channel image anchored at the origin.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// StretchContrast linearly remaps intensities so the darkest pixel becomes 0
// and the brightest 255. Flat and already full-range images are left alone.
func StretchContrast(img *image.Gray) {
	if len(img.Pix) == 0 {
		return
	}
	lo, hi := uint8(255), uint8(0)
	forEachRow(img, func(row []uint8) {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	})
	if lo == hi || (lo == 0 && hi == 255) {
		return
	}

	var lut [256]uint8
	span := int(hi) - int(lo)
	for v := int(lo); v <= int(hi); v++ {
		lut[v] = uint8((v - int(lo)) * 255 / span)
	}
	forEachRow(img, func(row []uint8) {
		for i, v := range row {
			row[i] = lut[v]
		}
	})
}

// MedianFilter returns a copy of img where every interior pixel is replaced by
// the median of its 3x3 neighbourhood. The one-pixel border is copied as is.
func MedianFilter(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	if w < 3 || h < 3 {
		return out
	}

	var window [9]uint8
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * img.Stride
				for dx := -1; dx <= 1; dx++ {
					window[n] = img.Pix[row+x+dx]
					n++
				}
			}
			out.Pix[y*out.Stride+x] = median9(&window)
		}
	}
	return out
}

func median9(w *[9]uint8) uint8 {
	for i := 1; i < len(w); i++ {
		for j := i; j > 0 && w[j-1] > w[j]; j-- {
			w[j-1], w[j] = w[j], w[j-1]
		}
	}
	return w[4]
}

func forEachRow(img *image.Gray, fn func(row []uint8)) {
	w := img.Bounds().Dx()
	for y := 0; y < img.Bounds().Dy(); y++ {
		off := y * img.Stride
		fn(img.Pix[off : off+w])
	}
}
