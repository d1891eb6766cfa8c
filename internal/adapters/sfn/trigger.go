// Package sfn starts AWS Step Functions executions.
package sfn

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/google/uuid"
)

// StartExecutionAPI is the part of *sfn.Client used by Trigger.
type StartExecutionAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// Trigger implements ports.WorkflowTrigger. The workflow identifier is the
// state machine ARN and the payload is the execution input.
type Trigger struct {
	client StartExecutionAPI
}

// NewTrigger constructs a Trigger.
func NewTrigger(client StartExecutionAPI) (*Trigger, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	return &Trigger{client: client}, nil
}

// Start starts an execution named with a random UUID and returns its ARN.
func (t *Trigger) Start(ctx context.Context, workflowID string, payload []byte) (string, error) {
	out, err := t.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(workflowID),
		Name:            aws.String(uuid.NewString()),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		return "", fmt.Errorf("start execution: %w", err)
	}
	return aws.ToString(out.ExecutionArn), nil
}
