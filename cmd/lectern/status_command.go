package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Status)
				}

				st := resp.Status
				rows := [][]string{
					{"Running", yesNo(st.Running)},
					{"PID", strconv.Itoa(st.PID)},
					{"Plans", strconv.Itoa(st.PlanCount)},
					{"Active runs", formatActiveRuns(st.ActiveRuns)},
					{"Database", st.DatabasePath},
					{"Lock file", st.LockPath},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func formatActiveRuns(runs []string) string {
	if len(runs) == 0 {
		return "none"
	}
	return strings.Join(runs, ", ")
}
