package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// StartWorkflow starts an execution of a Cloud Workflow with argument
// marshalled as its JSON input and returns the execution name.
func StartWorkflow(ctx context.Context, client *executions.Client, projectID, location, workflowID string, argument any) (string, error) {
	payloadBytes, err := json.Marshal(argument)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	execution, err := client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create workflow execution: %w", err)
	}
	return execution.GetName(), nil
}
