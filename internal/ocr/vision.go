package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"

	"github.com/Lllllllleong/pdfreader/internal/gcp"
	"github.com/Lllllllleong/pdfreader/internal/models"
)

// VisionConfig configures the Cloud Vision backend.
type VisionConfig struct {
	CredentialsFile string
	Languages       []string
	// ClientOptions are passed to the Vision client after the credentials.
	ClientOptions []option.ClientOption
}

// VisionBackend recognizes pages with Cloud Vision TEXT_DETECTION.
type VisionBackend struct {
	config VisionConfig
	hints  []string
}

func NewVisionBackend(config VisionConfig) *VisionBackend {
	return &VisionBackend{config: config, hints: languageHints(config.Languages)}
}

func (b *VisionBackend) Name() string { return BackendVision }

// Preprocess is false: the service does its own image preparation.
func (b *VisionBackend) Preprocess() bool { return false }

// Open reads the credentials once; every page of the document reuses them.
func (b *VisionBackend) Open(ctx context.Context) (Session, error) {
	svc, err := gcp.NewVisionService(ctx, b.config.CredentialsFile, b.config.ClientOptions...)
	if err != nil {
		return nil, models.BackendUnavailableError("failed to create Cloud Vision client", err)
	}
	return &visionSession{svc: svc, hints: b.hints}, nil
}

type visionSession struct {
	svc   *vision.Service
	hints []string
}

func (s *visionSession) Recognize(ctx context.Context, img *models.RasterImage) (string, error) {
	logCtx := slog.With("backend", BackendVision, "pageIndex", img.PageIndex)

	data, err := img.PNG()
	if err != nil {
		return "", models.RecognitionError("failed to encode page image", err)
	}

	req := &vision.AnnotateImageRequest{
		Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
		Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
	}
	if len(s.hints) > 0 {
		req.ImageContext = &vision.ImageContext{LanguageHints: s.hints}
	}

	resp, err := s.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyVisionError(ctx, err)
	}
	if len(resp.Responses) == 0 {
		return "", models.VisionServiceError("Cloud Vision returned no response for the image", nil)
	}

	first := resp.Responses[0]
	if first.Error != nil && first.Error.Code != 0 {
		return "", models.VisionServiceError(fmt.Sprintf("Cloud Vision error %d: %s", first.Error.Code, first.Error.Message), nil)
	}
	if len(first.TextAnnotations) == 0 {
		logCtx.Warn("No text detected on page.")
		return "", nil
	}
	return first.TextAnnotations[0].Description, nil
}

func (s *visionSession) Close() error { return nil }

// classifyVisionError maps a failed call onto the error taxonomy: rejected
// credentials and unreachable service abort the document, any other HTTP
// error only fails the page.
func classifyVisionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return models.BackendUnavailableError("Cloud Vision is unreachable", err)
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.BackendUnavailableError("Cloud Vision rejected the credentials", err)
	default:
		return models.VisionServiceError(fmt.Sprintf("Cloud Vision request failed with HTTP %d", gerr.Code), err)
	}
}
