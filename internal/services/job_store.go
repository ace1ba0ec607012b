package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"

	"github.com/Lllllllleong/pdfreader/internal/gcp"
	"github.com/Lllllllleong/pdfreader/internal/models"
)

// ObjectStore reads uploaded PDFs and stores extracted text.
type ObjectStore interface {
	Read(ctx context.Context, bucket, name string) ([]byte, error)
	// SaveText writes content unless the object already exists.
	SaveText(ctx context.Context, bucket, name, content string) error
}

// JobStore persists ExtractionJob records.
type JobStore interface {
	// FindCompleted returns the ID of a COMPLETED job for fileHash, if any.
	FindCompleted(ctx context.Context, fileHash string) (string, bool, error)
	Create(ctx context.Context, job models.ExtractionJob) (string, error)
	Update(ctx context.Context, jobID string, updates []firestore.Update) error
}

// WorkflowStarter hands a finished extraction to the downstream workflow.
type WorkflowStarter interface {
	Start(ctx context.Context, argument models.WorkflowArgument) (string, error)
}

type gcsObjectStore struct {
	client *storage.Client
}

func (s *gcsObjectStore) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	return gcp.ReadObject(ctx, s.client.Bucket(bucket), name)
}

func (s *gcsObjectStore) SaveText(ctx context.Context, bucket, name, content string) error {
	return gcp.SaveToGCSAtomically(ctx, s.client.Bucket(bucket), name, content)
}

type firestoreJobStore struct {
	client     *firestore.Client
	collection string
}

func (s *firestoreJobStore) FindCompleted(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := s.client.Collection(s.collection).
		Where("fileHash", "==", fileHash).
		Where("status", "==", models.JobStatusCompleted).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return docs[0].Ref.ID, true, nil
}

func (s *firestoreJobStore) Create(ctx context.Context, job models.ExtractionJob) (string, error) {
	docRef, _, err := s.client.Collection(s.collection).Add(ctx, job)
	if err != nil {
		return "", fmt.Errorf("failed to create extraction job: %w", err)
	}
	return docRef.ID, nil
}

func (s *firestoreJobStore) Update(ctx context.Context, jobID string, updates []firestore.Update) error {
	_, err := s.client.Collection(s.collection).Doc(jobID).Update(ctx, updates)
	return err
}

type executionsStarter struct {
	client     *executions.Client
	projectID  string
	location   string
	workflowID string
}

func (s *executionsStarter) Start(ctx context.Context, argument models.WorkflowArgument) (string, error) {
	return gcp.StartWorkflow(ctx, s.client, s.projectID, s.location, s.workflowID, argument)
}
