package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var since uint64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Show execution logs for a repair run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if follow {
					return followRunLogs(cmd, client, args[0])
				}
				resp, err := client.Logs(ipc.LogsRequest{RunID: args[0], Since: since})
				if err != nil {
					return fmt.Errorf("fetch logs: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Page)
				}
				for _, rec := range resp.Page.Records {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rec.Time.Local().Format("15:04:05"), rec.Line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream logs until the run terminates")
	cmd.Flags().Uint64Var(&since, "since", 0, "Sequence cursor to resume from")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}
