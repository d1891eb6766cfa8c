// Package temporal starts Temporal workflow executions.
package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// WorkflowIDPrefix prefixes the id of every started workflow.
const WorkflowIDPrefix = "rdf-load-"

// Starter is the part of client.Client used by Trigger.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Trigger implements ports.WorkflowTrigger. The workflow identifier is the
// registered workflow type and the payload its single argument.
type Trigger struct {
	client    Starter
	taskQueue string
}

// NewTrigger constructs a Trigger starting workflows on taskQueue.
func NewTrigger(c Starter, taskQueue string) (*Trigger, error) {
	if c == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if taskQueue == "" {
		return nil, fmt.Errorf("task queue must not be empty")
	}
	return &Trigger{client: c, taskQueue: taskQueue}, nil
}

// Dial connects to a Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	return c, nil
}

// Start starts the workflow and returns "<workflow id>/<run id>".
func (t *Trigger) Start(ctx context.Context, workflowID string, payload []byte) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowIDPrefix + uuid.NewString(),
		TaskQueue: t.taskQueue,
	}
	run, err := t.client.ExecuteWorkflow(ctx, opts, workflowID, json.RawMessage(payload))
	if err != nil {
		return "", fmt.Errorf("execute workflow: %w", err)
	}
	return run.GetID() + "/" + run.GetRunID(), nil
}
