package models

// ExtractionMethod records which path produced the final text.
type ExtractionMethod string

const (
	MethodNative ExtractionMethod = "native"
	MethodOCR    ExtractionMethod = "ocr"
)

// ExtractionReport is the outcome of one extraction call.
type ExtractionReport struct {
	Text      string
	Method    ExtractionMethod
	PageCount int
	// FailedPages holds 0-based indexes of pages that contributed no text
	// because rendering or recognition failed.
	FailedPages []int
}
