// Command load is the workflow Lambda that submits a built loader payload
// to the bulk loader.
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

	environ, err := app.Environ(context.Background(), cfg, nil)
	if err != nil {
		logger.Error("failed to read deployment parameters", "error", err)
		os.Exit(1)
	}

	client := app.Loader(cfg, logger, 0)
	defer client.Close()

	p := app.Pipeline(environ, logger, pipeline.WithLoader(client))
	lambda.Start(app.LoadHandler(p))
}
