// Package app assembles the pipeline and its collaborators from
// configuration for the entry points under cmd/.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssfn "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/time/rate"

	"github.com/nimafallahian/go-rdfload/internal/adapters/redisq"
	"github.com/nimafallahian/go-rdfload/internal/adapters/sfn"
	"github.com/nimafallahian/go-rdfload/internal/adapters/temporal"
	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/loader"
	"github.com/nimafallahian/go-rdfload/internal/pipeline"
	"github.com/nimafallahian/go-rdfload/internal/ports"
)

// AWSConfig loads the default AWS configuration, pinned to cfg.Region when set.
func AWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// Environ returns the process environment, overlaid with the parameters
// under cfg.SSMPath when it is set.
func Environ(ctx context.Context, cfg *config.Config, client ssm.GetParametersByPathAPIClient) (map[string]string, error) {
	environ := config.Environ()
	if cfg.SSMPath == "" {
		return environ, nil
	}
	if client == nil {
		awsCfg, err := AWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client = ssm.NewFromConfig(awsCfg)
	}
	params, err := config.SSMParameters(ctx, client, cfg.SSMPath)
	if err != nil {
		return nil, err
	}
	return config.Overlay(environ, params), nil
}

// Trigger builds the workflow trigger selected by cfg.Trigger. The returned
// closer releases its connections.
func Trigger(ctx context.Context, cfg *config.Config) (ports.WorkflowTrigger, io.Closer, error) {
	switch cfg.Trigger {
	case config.TriggerTemporal:
		c, err := temporal.Dial(cfg.TemporalHost, cfg.TemporalNamespace)
		if err != nil {
			return nil, nil, err
		}
		t, err := temporal.NewTrigger(c, cfg.TemporalTaskQueue)
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return t, closerFunc(func() error { c.Close(); return nil }), nil

	case config.TriggerRedis:
		rdb, err := redisq.Connect(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		t, err := redisq.NewTrigger(rdb)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return t, rdb, nil

	default:
		awsCfg, err := AWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		t, err := sfn.NewTrigger(awssfn.NewFromConfig(awsCfg))
		if err != nil {
			return nil, nil, err
		}
		return t, closerFunc(func() error { return nil }), nil
	}
}

// Loader builds the loader client. A positive ratePerSecond throttles
// submissions with a burst of one.
func Loader(cfg *config.Config, logger *slog.Logger, ratePerSecond float64) *loader.Client {
	opts := []loader.Option{
		loader.WithLogger(logger),
		loader.WithTimeout(cfg.LoadTimeout),
		loader.WithChecker(loader.NewEndpointChecker(
			loader.WithProbeTimeout(cfg.ProbeTimeout),
			loader.WithCheckerLogger(logger),
		)),
	}
	if ratePerSecond > 0 {
		opts = append(opts, loader.WithRateLimiter(rate.NewLimiter(rate.Limit(ratePerSecond), 1)))
	}
	return loader.NewClient(opts...)
}

// Pipeline builds a pipeline over the deployment configuration in environ.
func Pipeline(environ map[string]string, logger *slog.Logger, opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.NewFromEnviron(environ, append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)...)
}

// ExecutionContext describes the current Lambda invocation. Outside Lambda
// only the static function metadata is known.
func ExecutionContext(ctx context.Context) domain.ExecutionContext {
	exec := domain.ExecutionContext{
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		exec.InvokedFunctionArn = lc.InvokedFunctionArn
		exec.RequestID = lc.AwsRequestID
	}
	return exec
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
