package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdfreader/internal/gcp"
	"github.com/Lllllllleong/pdfreader/internal/models"
)

// GeminiConfig configures the Vertex AI transcription backend.
type GeminiConfig struct {
	ProjectID string
	Region    string
	Model     string
}

// GeminiBackend transcribes page images with a Gemini model on Vertex AI.
type GeminiBackend struct {
	config GeminiConfig
}

func NewGeminiBackend(config GeminiConfig) *GeminiBackend {
	return &GeminiBackend{config: config}
}

func (b *GeminiBackend) Name() string     { return BackendGemini }
func (b *GeminiBackend) Preprocess() bool { return false }

func (b *GeminiBackend) Open(ctx context.Context) (Session, error) {
	client, err := gcp.NewVertexClient(ctx, b.config.ProjectID, b.config.Region, b.config.Model)
	if err != nil {
		return nil, models.BackendUnavailableError("failed to create Vertex AI client", err)
	}
	return &geminiSession{model: client.TranscriptionModel, closer: client}, nil
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiSession struct {
	model  contentGenerator
	closer interface{ Close() error }
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

func (s *geminiSession) Recognize(ctx context.Context, img *models.RasterImage) (string, error) {
	logCtx := slog.With("backend", BackendGemini, "pageIndex", img.PageIndex)

	data, err := img.PNG()
	if err != nil {
		return "", models.RecognitionError("failed to encode page image", err)
	}

	resp, err := s.model.GenerateContent(ctx, genai.ImageData("png", data), genai.Text(gcp.TranscriptionUserPrompt))
	if err != nil {
		return "", classifyGeminiError(ctx, err)
	}

	text := transcriptText(resp)
	if isRefusal(text) {
		logCtx.Warn("Gemini refused to transcribe the page, treating it as empty.", "response", text)
		return "", nil
	}
	if text == "" {
		logCtx.Warn("No text detected on page.")
	}
	return text, nil
}

// isRefusal reports a response that opens with a refusal. Transcribed
// pages may quote the same words further in.
func isRefusal(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range refusalPhrases {
		if strings.HasPrefix(lower, phrase) {
			return true
		}
	}
	return false
}

func (s *geminiSession) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// transcriptText concatenates the text parts of the first candidate and
// strips code fences the model sometimes adds.
func transcriptText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(b.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func classifyGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return models.BackendUnavailableError("Vertex AI rejected the credentials", err)
	case codes.Unavailable:
		return models.BackendUnavailableError("Vertex AI is unreachable", err)
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return models.RecognitionError("Gemini blocked the page", err)
	}
	return models.RecognitionError("Gemini transcription failed", err)
}
