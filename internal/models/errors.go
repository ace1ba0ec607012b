package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures so callers can tell fatal
// conditions apart from page-scoped ones.
type ErrorKind string

const (
	KindDocumentLoad       ErrorKind = "document_load"
	KindRender             ErrorKind = "render"
	KindBackendUnavailable ErrorKind = "ocr_backend_unavailable"
	KindVisionService      ErrorKind = "vision_service"
	KindRecognition        ErrorKind = "recognition"
)

// ExtractionError carries the kind of failure along with the underlying cause.
type ExtractionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the whole extraction call.
func (e *ExtractionError) Fatal() bool {
	return e.Kind == KindDocumentLoad || e.Kind == KindBackendUnavailable
}

func newError(kind ErrorKind, message string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Err: err}
}

// DocumentLoadError marks malformed or unreadable input.
func DocumentLoadError(message string, err error) *ExtractionError {
	return newError(KindDocumentLoad, message, err)
}

// RenderError marks a page that could not be rasterized.
func RenderError(message string, err error) *ExtractionError {
	return newError(KindRender, message, err)
}

// BackendUnavailableError marks missing credentials or an unreachable OCR service.
func BackendUnavailableError(message string, err error) *ExtractionError {
	return newError(KindBackendUnavailable, message, err)
}

// VisionServiceError marks a non-zero error code in a Cloud Vision response.
func VisionServiceError(message string, err error) *ExtractionError {
	return newError(KindVisionService, message, err)
}

// RecognitionError marks a local or generative engine failing on one page.
func RecognitionError(message string, err error) *ExtractionError {
	return newError(KindRecognition, message, err)
}

// IsKind reports whether any error in err's chain is an ExtractionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}

// IsFatal reports whether err is an ExtractionError that aborts the call.
func IsFatal(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Fatal()
}
