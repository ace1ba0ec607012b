package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Transcription Model Prompts ---
const TranscriptionSystemPrompt = "You are an OCR engine. You transcribe the text visible in scanned document pages exactly as printed. You never summarize, translate, describe or comment on the content."
const TranscriptionUserPrompt = `Transcribe all text on this page image.

Rules:
1.  Reproduce the text in reading order, one printed line per output line.
2.  Separate paragraphs with a single blank line.
3.  Keep the original language and spelling. Do not translate or correct anything.
4.  Ignore images and decorations that contain no text. Do not describe them.
5.  If the page contains no text at all, return an empty response.

Return ONLY the transcribed text. Do not add preambles, explanations or markdown fences.`

// VertexClient holds the generative model used for page transcription.
type VertexClient struct {
	TranscriptionModel *genai.GenerativeModel
	baseClient         *genai.Client
}

// NewVertexClient creates a client with a deterministic transcription model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" || modelName == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID, region and modelName cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranscriptionSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		TranscriptionModel: model,
		baseClient:         baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
