package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nimafallahian/go-rdfload/internal/app"
	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/logging"
	"github.com/nimafallahian/go-rdfload/internal/pipeline"
)

// operatorIdentity stands in for the function ARN outside Lambda.
const operatorIdentity = "rdfload-cli"

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rdfload",
		Short:        "Operate the RDF bulk load pipeline",
		Long:         "Build, submit and inspect RDF bulk loads using the deployment configuration in the environment",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().String("log-format", logging.FormatText, "Log format (text or json)")

	cmd.AddCommand(BuildCmd())
	cmd.AddCommand(SubmitCmd())
	cmd.AddCommand(StatusCmd())
	cmd.AddCommand(ProbeCmd())

	return cmd
}

type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
}

func newSession(cmd *cobra.Command, withLoader bool) (*session, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	logger := logging.New(level, format, cmd.ErrOrStderr())

	environ, err := app.Environ(cmd.Context(), cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	var opts []pipeline.Option
	cleanup := func() {}
	if withLoader {
		client := app.Loader(cfg, logger, 0)
		opts = append(opts, pipeline.WithLoader(client))
		cleanup = func() { _ = client.Close() }
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		pipeline: app.Pipeline(environ, logger, opts...),
	}, cleanup, nil
}

func (s *session) exec() domain.ExecutionContext {
	exec := app.ExecutionContext(context.Background())
	exec.InvokedFunctionArn = operatorIdentity
	if host, err := os.Hostname(); err == nil {
		exec.RequestID = host
	}
	return exec
}

// readEvent reads the event from path, or from stdin when path is "-".
func readEvent(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return data, nil
}

// printResult writes res as JSON and fails the command when it is not a success.
func printResult(cmd *cobra.Command, res domain.Result) error {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !res.IsSuccess() {
		return fmt.Errorf("load pipeline returned status %d", res.StatusCode)
	}
	return nil
}
