package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/pdfreader/internal/services"
)

var (
	uploadHandler *services.UploadHandler
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleExtractText", handleExtractText)
}

// main is required by the Go Functions Framework.
func main() {}

func newUploadHandler(ctx context.Context) (*services.UploadHandler, error) {
	config, err := services.LoadExtractorConfig()
	if err != nil {
		return nil, err
	}
	extractor, err := services.NewExtractor(config)
	if err != nil {
		return nil, err
	}
	slog.Info("Text extractor initialized.", "ocrBackend", config.OCRBackend, "renderDpi", config.RenderDPI, "normalizer", config.TextNormalizer)
	return services.NewUploadHandler(extractor, config.MaxUploadBytes), nil
}

// handleExtractText accepts a multipart PDF upload and answers with its text.
func handleExtractText(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		uploadHandler, initErr = newUploadHandler(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	uploadHandler.ServeHTTP(w, r)
}
