// Package pipeline is the top-level handler of the load pipeline. It wires
// the decoder, builder, loader client and workflow trigger together and is
// the only place where errors become a domain.Result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/nimafallahian/go-rdfload/internal/builder"
	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/notification"
	"github.com/nimafallahian/go-rdfload/internal/ports"
)

// Pipeline handles one notification or payload per call and keeps no state
// between calls.
type Pipeline struct {
	deployment    *config.Deployment
	deploymentErr error

	decoder *notification.Decoder
	builder *builder.Builder
	trigger ports.WorkflowTrigger
	loader  ports.LoadSubmitter
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by the pipeline and its decoder and builder.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTrigger sets the workflow trigger used by Invoke.
func WithTrigger(t ports.WorkflowTrigger) Option {
	return func(p *Pipeline) { p.trigger = t }
}

// WithLoader sets the loader used by Submit, Load and Check.
func WithLoader(l ports.LoadSubmitter) Option {
	return func(p *Pipeline) { p.loader = l }
}

// New constructs a Pipeline for a loaded deployment configuration.
func New(dep *config.Deployment, opts ...Option) *Pipeline {
	p := &Pipeline{
		deployment: dep,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.decoder = notification.NewDecoder(p.logger)
	p.builder = builder.New(p.logger)
	return p
}

// NewFromEnviron loads the deployment configuration from environ. A missing
// key does not fail construction; every call then reports it as an input
// error instead.
func NewFromEnviron(environ map[string]string, opts ...Option) *Pipeline {
	dep, err := config.LoadDeployment(environ)
	p := New(dep, opts...)
	p.deploymentErr = err
	if err != nil {
		p.logger.Error("deployment configuration incomplete", "error", err)
	} else {
		p.logger.Info("deployment configuration", "deployment", dep)
	}
	return p
}

// Deployment returns the deployment configuration, nil when it failed to load.
func (p *Pipeline) Deployment() *config.Deployment {
	return p.deployment
}

func (p *Pipeline) configured() error {
	if p.deploymentErr != nil {
		return p.deploymentErr
	}
	if p.deployment == nil {
		return domain.NewInputError(domain.ErrMissingConfig, "Deployment configuration not loaded")
	}
	return nil
}

// Prepare turns a raw notification into a validated LoadRequest. The
// execution context is recorded first, then the deployment configuration is
// checked, then the notification is decoded; the first error wins.
func (p *Pipeline) Prepare(exec domain.ExecutionContext, event []byte) (*domain.LoadRequest, error) {
	var req domain.LoadRequest

	p.builder.FromContext(&req, exec)

	if err := p.configured(); err != nil {
		return nil, err
	}
	p.builder.FromDeployment(&req, p.deployment)

	obj, err := p.decoder.Decode(event)
	if err != nil {
		return nil, err
	}
	if err := p.builder.FromNotification(&req, obj); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	p.logger.Info("load request", "request", req.String())
	p.logger.Debug("load request detail", "json", req.JSON())
	return &req, nil
}

// Invoke prepares the request from a notification and hands the built
// loader payload to the workflow trigger. A successful hand-off yields the
// empty Result.
func (p *Pipeline) Invoke(ctx context.Context, exec domain.ExecutionContext, event []byte) domain.Result {
	req, err := p.Prepare(exec, event)
	if err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}

	data, err := payloadBytes(req)
	if err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}

	if p.trigger == nil {
		return workflowFailed(fmt.Errorf("no workflow trigger configured"))
	}

	executionID, err := p.trigger.Start(ctx, req.RdfLoadWorkflowArn, data)
	if err != nil {
		p.logger.Error("workflow start failed", "workflow", req.RdfLoadWorkflowArn, "error", err)
		return workflowFailed(err)
	}

	p.logger.Info("started workflow", "workflow", req.RdfLoadWorkflowArn, "execution", executionID)
	return domain.Result{}
}

// Submit builds the loader payload for a validated request and posts it to
// the loader endpoint.
func (p *Pipeline) Submit(ctx context.Context, req *domain.LoadRequest) domain.Result {
	data, err := payloadBytes(req)
	if err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}
	return p.Load(ctx, data)
}

// Load posts an already built loader payload to the loader endpoint.
func (p *Pipeline) Load(ctx context.Context, payload []byte) domain.Result {
	if err := p.configured(); err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}
	if p.loader == nil {
		return noLoader()
	}

	p.logger.Debug("load payload", "payload", string(payload))
	res := p.loader.Submit(ctx, p.deployment.LoaderEndpoint, payload)
	p.logResult(res)
	return res
}

// Check queries the loader for the state of a load job.
func (p *Pipeline) Check(ctx context.Context, req domain.LoaderStatusRequest) domain.Result {
	if err := p.configured(); err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}
	if err := req.Validate(); err != nil {
		p.logger.Error("input error", "error", err)
		return domain.ResultFromError(err)
	}
	if p.loader == nil {
		return noLoader()
	}

	res := p.loader.Status(ctx, p.deployment.LoaderEndpoint, req)
	p.logResult(res)
	return res
}

func (p *Pipeline) logResult(res domain.Result) {
	attrs := []any{"status_code", res.StatusCode}
	if res.StatusCodeDetail != "" {
		attrs = append(attrs, "status_code_detail", res.StatusCodeDetail)
	}
	if res.StatusError != "" {
		attrs = append(attrs, "status_error", res.StatusError)
	}
	if res.IsSuccess() {
		p.logger.Info("result", attrs...)
		return
	}
	p.logger.Warn("result", attrs...)
}

// StripLoadOutput removes a top-level LoadOutput key, left behind by a
// previous workflow state, from a loader payload.
func StripLoadOutput(event []byte) ([]byte, error) {
	if !gjson.GetBytes(event, "LoadOutput").Exists() {
		return event, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event, &fields); err != nil {
		return nil, domain.NewInputError(domain.ErrMalformedEnvelope, "Event is not valid JSON")
	}
	delete(fields, "LoadOutput")
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode load payload: %w", err)
	}
	return out, nil
}

// LoadIDFromOutput extracts statusDetail.loadId from a previous load Result
// wrapped as {"LoadOutput": ...}.
func LoadIDFromOutput(event []byte) (string, error) {
	if !gjson.ValidBytes(event) {
		return "", domain.NewInputError(domain.ErrMalformedEnvelope, "Event is not valid JSON")
	}
	output := gjson.GetBytes(event, "LoadOutput")
	if !output.Exists() {
		return "", domain.NewInputError(domain.ErrMalformedEnvelope, "No LoadOutput in event")
	}
	id := output.Get("statusDetail.loadId")
	if id.Type != gjson.String || id.String() == "" {
		return "", domain.NewInputError(domain.ErrMalformedEnvelope, "No statusDetail.loadId in LoadOutput")
	}
	return id.String(), nil
}

func payloadBytes(req *domain.LoadRequest) ([]byte, error) {
	payload, err := domain.NewLoaderPayload(req)
	if err != nil {
		return nil, err
	}
	data, err := payload.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode load payload: %w", err)
	}
	return data, nil
}

func workflowFailed(err error) domain.Result {
	return domain.Result{
		StatusCode:  http.StatusInternalServerError,
		StatusError: fmt.Sprintf("Workflow start failed: %v", err),
	}
}

func noLoader() domain.Result {
	return domain.Result{
		StatusCode:  http.StatusInternalServerError,
		StatusError: "Exception occurred: no loader configured",
	}
}
