package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"

	"github.com/Lllllllleong/pdfreader/internal/gcp"
	"github.com/Lllllllleong/pdfreader/internal/models"
)

type GCSExtractorConfig struct {
	ProjectID        string
	TextOutputBucket string
	DatabaseID       string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
}

// GCSExtractorFunction extracts text from PDFs uploaded to a bucket and
// records each run as an ExtractionJob.
type GCSExtractorFunction struct {
	objects   ObjectStore
	jobs      JobStore
	workflows WorkflowStarter
	extractor ReportExtractor
	config    GCSExtractorConfig
}

func NewGCSExtractor(ctx context.Context) (*GCSExtractorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := GCSExtractorConfig{
		ProjectID:        projectID,
		TextOutputBucket: gcp.GetEnv("TEXT_OUTPUT_BUCKET", ""),
		DatabaseID:       gcp.GetEnv("FIRESTORE_DATABASE", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "extractions"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
	}
	if config.TextOutputBucket == "" {
		return nil, fmt.Errorf("TEXT_OUTPUT_BUCKET environment variable must be set")
	}

	extractorConfig, err := LoadExtractorConfig()
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(extractorConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	var workflows WorkflowStarter
	if config.WorkflowID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		workflows = &executionsStarter{
			client:     executionsClient,
			projectID:  config.ProjectID,
			location:   config.WorkflowLocation,
			workflowID: config.WorkflowID,
		}
	}
	slog.Info("GCS text extractor initialized.", "outputBucket", config.TextOutputBucket, "ocrBackend", extractorConfig.OCRBackend, "workflowId", config.WorkflowID)
	return newGCSExtractorFunction(config, &gcsObjectStore{client: storageClient}, &firestoreJobStore{client: firestoreClient, collection: config.CollectionName}, workflows, extractor), nil
}

// newGCSExtractorFunction wires the function to its stores. workflows may be
// nil, in which case no workflow is started.
func newGCSExtractorFunction(config GCSExtractorConfig, objects ObjectStore, jobs JobStore, workflows WorkflowStarter, extractor ReportExtractor) *GCSExtractorFunction {
	return &GCSExtractorFunction{
		objects:   objects,
		jobs:      jobs,
		workflows: workflows,
		extractor: extractor,
		config:    config,
	}
}

func (f *GCSExtractorFunction) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !isPDFObject(e.Name) {
		logCtx.Info("Skipping non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	data, err := f.objects.Read(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash := calculateHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	existingID, isDuplicate, err := f.jobs.FindCompleted(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("File already extracted. Skipping.", "existingDocId", existingID)
		return nil
	}

	jobID, err := f.jobs.Create(ctx, models.ExtractionJob{
		FileHash:         fileHash,
		SourceBucket:     e.Bucket,
		OriginalFilename: e.Name,
		Status:           models.JobStatusExtracting,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", jobID)
	logCtx.Info("Created extraction job in Firestore.")

	report, err := f.extractor.ExtractWithReport(ctx, data)
	if err != nil {
		err = f.handleError(ctx, logCtx, jobID, "failed to extract text", err)
		if models.IsKind(err, models.KindDocumentLoad) {
			// A malformed upload fails the same way on every redelivery.
			return nil
		}
		return err
	}

	objectName := textObjectName(e.Name)
	if err := f.objects.SaveText(ctx, f.config.TextOutputBucket, objectName, report.Text); err != nil {
		return f.handleError(ctx, logCtx, jobID, "failed to save extracted text", err)
	}
	outputGCSUri := fmt.Sprintf("gs://%s/%s", f.config.TextOutputBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: models.JobStatusCompleted},
		{Path: "method", Value: string(report.Method)},
		{Path: "pageCount", Value: report.PageCount},
		{Path: "failedPages", Value: report.FailedPages},
		{Path: "outputGcsUri", Value: outputGCSUri},
		{Path: "completedAt", Value: time.Now()},
	}
	if err := f.jobs.Update(ctx, jobID, updates); err != nil {
		return f.handleError(ctx, logCtx, jobID, "failed to update status to COMPLETED", err)
	}
	logCtx.Info("Extraction complete.", "method", report.Method, "pageCount", report.PageCount, "failedPages", report.FailedPages, "output", outputGCSUri)

	if f.workflows == nil {
		return nil
	}
	return f.triggerWorkflow(ctx, logCtx, jobID, report, outputGCSUri)
}

func (f *GCSExtractorFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, jobID string, report *models.ExtractionReport, outputGCSUri string) error {
	logCtx.Info("Triggering workflow.")
	executionID, err := f.workflows.Start(ctx, models.WorkflowArgument{
		DocumentID: jobID,
		TextGCSUri: outputGCSUri,
		PageCount:  report.PageCount,
		Method:     string(report.Method),
	})
	if err != nil {
		logCtx.Error("Failed to trigger workflow execution", "error", err)
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	if err := f.jobs.Update(ctx, jobID, []firestore.Update{{Path: "workflowExecutionId", Value: executionID}}); err != nil {
		logCtx.Warn("Failed to record workflow execution on job.", "executionId", executionID, "error", err)
	}
	logCtx.Info("Hand-off to workflow complete.", "executionId", executionID)
	return nil
}

func (f *GCSExtractorFunction) handleError(ctx context.Context, logCtx *slog.Logger, jobID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.updateStatus(ctx, jobID, models.JobStatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *GCSExtractorFunction) updateStatus(ctx context.Context, jobID, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	return f.jobs.Update(ctx, jobID, updates)
}

func isPDFObject(name string) bool {
	return !strings.HasSuffix(name, "/") && strings.EqualFold(path.Ext(name), ".pdf")
}

// textObjectName maps "reports/q1.pdf" to "reports/q1.txt".
func textObjectName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".txt"
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
