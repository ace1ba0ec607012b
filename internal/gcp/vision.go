package gcp

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"
)

// NewVisionService creates a Cloud Vision client authenticated with the
// service-account key at credentialsFile. Extra options are appended after
// the credentials, so an explicit HTTP client or endpoint takes precedence.
func NewVisionService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*vision.Service, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("no credentials file configured for Cloud Vision")
	}
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}

	clientOpts := append([]option.ClientOption{
		option.WithCredentialsJSON(creds),
		option.WithScopes(vision.CloudVisionScope),
	}, opts...)

	svc, err := vision.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("vision.NewService: %w", err)
	}
	return svc, nil
}
