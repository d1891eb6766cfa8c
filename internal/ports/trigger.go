package ports

import "context"

// WorkflowTrigger hands a built loader payload to the workflow engine that
// performs the load, identified by workflowID (a state machine ARN, a
// workflow type or a queue name, depending on the engine). It returns the
// engine's identifier of the started execution.
type WorkflowTrigger interface {
	Start(ctx context.Context, workflowID string, payload []byte) (string, error)
}
