package models

import "time"

// ExtractionJob is the Firestore record for a PDF picked up from a bucket.
type ExtractionJob struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	SourceBucket        string    `firestore:"sourceBucket,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	Method              string    `firestore:"method,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	FailedPages         []int     `firestore:"failedPages,omitempty"`
	OutputGCSUri        string    `firestore:"outputGcsUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"`
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
	CompletedAt         time.Time `firestore:"completedAt,omitempty"`
}

const (
	JobStatusExtracting = "EXTRACTING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)
