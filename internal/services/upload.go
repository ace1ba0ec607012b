package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/pdfreader/internal/models"
)

// uploadField is the multipart form field carrying the PDF.
const uploadField = "file"

// ReportExtractor is the part of Extractor the HTTP surfaces depend on.
type ReportExtractor interface {
	ExtractWithReport(ctx context.Context, data []byte) (*models.ExtractionReport, error)
}

// UploadHandler serves the text extraction endpoint: a multipart POST with
// the PDF in the "file" field, answered with the text as text/plain.
type UploadHandler struct {
	extractor ReportExtractor
	maxBytes  int64
}

func NewUploadHandler(extractor ReportExtractor, maxBytes int64) *UploadHandler {
	return &UploadHandler{extractor: extractor, maxBytes: maxBytes}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed: use POST with a multipart file", http.StatusMethodNotAllowed)
		return
	}

	data, filename, err := h.readUpload(w, r)
	if err != nil {
		slog.Warn("Rejected upload.", "error", err)
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	logCtx := slog.With("filename", filename, "bytes", len(data))
	logCtx.Info("Received PDF upload.")

	report, err := h.extractor.ExtractWithReport(r.Context(), data)
	if err != nil {
		logCtx.Error("Failed to extract text.", "error", err)
		http.Error(w, fmt.Sprintf("failed to process PDF: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Extraction-Method", string(report.Method))
	w.Header().Set("X-Page-Count", strconv.Itoa(report.PageCount))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, report.Text); err != nil {
		logCtx.Error("Failed to write response.", "error", err)
	}
}

func (h *UploadHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	if r.ContentLength > h.maxBytes {
		return nil, "", fmt.Errorf("upload exceeds %d bytes", h.maxBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("upload exceeds %d bytes", h.maxBytes)
		}
		return nil, "", fmt.Errorf("could not parse multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file field", uploadField)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("could not read uploaded file: %w", err)
	}
	return data, header.Filename, nil
}
