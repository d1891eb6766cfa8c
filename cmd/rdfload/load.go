package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Print the loader payload for a storage notification",

		RunE: func(cmd *cobra.Command, args []string) error {
			eventPath, _ := cmd.Flags().GetString("event")

			s, cleanup, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			event, err := readEvent(cmd, eventPath)
			if err != nil {
				return err
			}

			req, err := s.pipeline.Prepare(s.exec(), event)
			if err != nil {
				return printResult(cmd, domain.ResultFromError(err))
			}

			payload, err := domain.NewLoaderPayload(req)
			if err != nil {
				return err
			}
			data, err := payload.Marshal()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	}

	cmd.Flags().String("event", "-", "Path of the notification event, - for stdin")

	return cmd
}

func SubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the load for a storage notification directly to the loader",

		RunE: func(cmd *cobra.Command, args []string) error {
			eventPath, _ := cmd.Flags().GetString("event")

			s, cleanup, err := newSession(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			event, err := readEvent(cmd, eventPath)
			if err != nil {
				return err
			}

			req, err := s.pipeline.Prepare(s.exec(), event)
			if err != nil {
				return printResult(cmd, domain.ResultFromError(err))
			}

			return printResult(cmd, s.pipeline.Submit(cmd.Context(), req))
		},
	}

	cmd.Flags().String("event", "-", "Path of the notification event, - for stdin")

	return cmd
}

func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status LOAD_ID",
		Short: "Show the state of a load job",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			details, _ := cmd.Flags().GetBool("details")
			errs, _ := cmd.Flags().GetBool("errors")
			page, _ := cmd.Flags().GetInt("page")
			perPage, _ := cmd.Flags().GetInt("errors-per-page")

			s, cleanup, err := newSession(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			return printResult(cmd, s.pipeline.Check(cmd.Context(), domain.LoaderStatusRequest{
				LoadID:        args[0],
				Details:       details,
				Errors:        errs,
				Page:          page,
				ErrorsPerPage: perPage,
			}))
		},
	}

	cmd.Flags().Bool("details", false, "Include details beyond the overall status")
	cmd.Flags().Bool("errors", false, "Include the list of errors")
	cmd.Flags().Int("page", 0, "Error page number")
	cmd.Flags().Int("errors-per-page", 0, "Errors per page")

	return cmd
}
