package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/ipc"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Request a best-effort abort of a repair run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(ipc.CancelRequest{RunID: args[0]})
				if err != nil {
					return fmt.Errorf("cancel run: %w", err)
				}
				if resp.Cancelled {
					fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for run %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Run %s already finished\n", args[0])
				}
				return nil
			})
		},
	}
	return cmd
}
