package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pdfreader/internal/models"
	"github.com/Lllllllleong/pdfreader/internal/services"
)

var (
	gcsExtractorInstance *services.GCSExtractorFunction
	once                 sync.Once
	initErr              error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by google.cloud.storage.object.v1.finalized on the upload bucket.
	functions.CloudEvent("ExtractUploadedPDF", extractUploadedPDF)
}

// main is required by the Go Functions Framework.
func main() {}

func extractUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		gcsExtractorInstance, initErr = services.NewGCSExtractor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return gcsExtractorInstance.Process(ctx, gcsEvent)
}
