package models

// GCSEvent is the data payload of a storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// WorkflowArgument is handed to the downstream workflow once text is stored.
type WorkflowArgument struct {
	DocumentID string `json:"documentId"`
	TextGCSUri string `json:"textGcsUri"`
	PageCount  int    `json:"pageCount"`
	Method     string `json:"method"`
}
