// Package builder fills a LoadRequest from the three sources that own its
// fields: the host execution context, the deployment configuration and the
// decoded notification. Each step is total over its own fields and none of
// them validates the request.
package builder

import (
	"log/slog"

	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Builder populates load requests. The zero value logs to slog.Default.
type Builder struct {
	logger *slog.Logger
}

// New returns a Builder logging to logger, or to slog.Default when nil.
func New(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

func (b *Builder) log() *slog.Logger {
	if b == nil || b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

// FromContext sets InvokedFunctionArn.
func (b *Builder) FromContext(req *domain.LoadRequest, exec domain.ExecutionContext) {
	b.log().Info("execution context",
		"aws_request_id", exec.RequestID,
		"log_group_name", exec.LogGroupName,
		"log_stream_name", exec.LogStreamName,
		"memory_limit_in_mb", exec.MemoryLimitInMB,
	)
	req.InvokedFunctionArn = exec.InvokedFunctionArn
}

// FromDeployment sets NeptuneS3IAMRoleArn, RdfLoadWorkflowArn and
// IDBaseInternal.
func (b *Builder) FromDeployment(req *domain.LoadRequest, dep *config.Deployment) {
	b.log().Debug("deployment", "deployment", dep)
	req.NeptuneS3IAMRoleArn = dep.NeptuneS3IAMRoleArn
	req.RdfLoadWorkflowArn = dep.RdfLoadWorkflowArn
	req.IDBaseInternal = dep.IDBaseInternal
}

// FromNotification sets RegionCode, SourceURI and Format. An object key
// with an unsupported extension is an input error.
func (b *Builder) FromNotification(req *domain.LoadRequest, obj domain.ObjectCreated) error {
	format, err := domain.FormatFromKey(obj.Key)
	if err != nil {
		b.log().Error("unsupported object", "key", obj.Key, "error", err)
		return err
	}
	req.RegionCode = obj.Region
	req.SourceURI = obj.URI()
	req.Format = format
	return nil
}

var std = &Builder{}

// FromContext sets InvokedFunctionArn using the default builder.
func FromContext(req *domain.LoadRequest, exec domain.ExecutionContext) {
	std.FromContext(req, exec)
}

// FromDeployment sets the deployment fields using the default builder.
func FromDeployment(req *domain.LoadRequest, dep *config.Deployment) {
	std.FromDeployment(req, dep)
}

// FromNotification sets the notification fields using the default builder.
func FromNotification(req *domain.LoadRequest, obj domain.ObjectCreated) error {
	return std.FromNotification(req, obj)
}
