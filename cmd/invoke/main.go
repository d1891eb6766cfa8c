// Command invoke is the Lambda that starts the load workflow for every RDF
// file created in the landing bucket.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nimafallahian/go-rdfload/internal/app"
	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/logging"
	"github.com/nimafallahian/go-rdfload/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("", "", os.Stdout).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx := context.Background()

	environ, err := app.Environ(ctx, cfg, nil)
	if err != nil {
		logger.Error("failed to read deployment parameters", "error", err)
		os.Exit(1)
	}

	trigger, closer, err := app.Trigger(ctx, cfg)
	if err != nil {
		logger.Error("failed to create workflow trigger", "trigger", cfg.Trigger, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logger.Error("failed to close workflow trigger", "error", cerr)
		}
	}()

	p := app.Pipeline(environ, logger, pipeline.WithTrigger(trigger))
	lambda.Start(app.InvokeHandler(p))
}
