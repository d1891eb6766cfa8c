package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/loader"
)

func ProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [URL]",
		Short: "Check that the loader endpoint accepts connections",
		Long:  "Check that the loader endpoint accepts connections. Without a URL the deployment's loader endpoint is probed.",
		Args:  cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			endpoint := ""
			if len(args) == 1 {
				endpoint = args[0]
			} else if dep := s.pipeline.Deployment(); dep != nil {
				endpoint = dep.LoaderEndpoint
			} else {
				return fmt.Errorf("no URL given and EKG_SPARQL_LOADER_ENDPOINT not set")
			}

			checker := loader.NewEndpointChecker(
				loader.WithProbeTimeout(s.cfg.ProbeTimeout),
				loader.WithCheckerLogger(s.logger),
			)
			res, err := checker.Check(cmd.Context(), endpoint)
			if err != nil {
				return printResult(cmd, domain.ResultFromError(err))
			}
			if res != nil {
				return printResult(cmd, *res)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is open\n", endpoint)

			return nil
		},
	}

	return cmd
}
