package app

import (
	"context"
	"encoding/json"

	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/pipeline"
)

// Handler is the signature passed to lambda.Start. Failures are reported in
// the Result; the error return is reserved for the runtime.
type Handler func(ctx context.Context, event json.RawMessage) (domain.Result, error)

// InvokeHandler starts the load workflow for a storage notification.
func InvokeHandler(p *pipeline.Pipeline) Handler {
	return func(ctx context.Context, event json.RawMessage) (domain.Result, error) {
		return p.Invoke(ctx, ExecutionContext(ctx), event), nil
	}
}

// LoadHandler submits a loader payload handed over by the workflow. A
// LoadOutput left by an earlier state is dropped first.
func LoadHandler(p *pipeline.Pipeline) Handler {
	return func(ctx context.Context, event json.RawMessage) (domain.Result, error) {
		payload, err := pipeline.StripLoadOutput(event)
		if err != nil {
			return domain.ResultFromError(err), nil
		}
		return p.Load(ctx, payload), nil
	}
}

// CheckHandler queries the state of the load recorded in the event's
// LoadOutput.
func CheckHandler(p *pipeline.Pipeline) Handler {
	return func(ctx context.Context, event json.RawMessage) (domain.Result, error) {
		loadID, err := pipeline.LoadIDFromOutput(event)
		if err != nil {
			return domain.ResultFromError(err), nil
		}
		return p.Check(ctx, domain.LoaderStatusRequest{LoadID: loadID, Details: true, Errors: true}), nil
	}
}
