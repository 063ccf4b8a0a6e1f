package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/ipc"
)

func newDiagnoseCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "diagnose <plan-id>",
		Short: "Report per-phase completeness for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Diagnose(ipc.DiagnoseRequest{PlanID: args[0]})
				if err != nil {
					return fmt.Errorf("diagnose plan: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Diagnostics)
				}

				rows := make([][]string, 0, len(resp.Diagnostics.Phases))
				for _, ph := range resp.Diagnostics.Phases {
					label := ph.Label
					if label == "" {
						label = humanizeIdentifier(ph.PhaseID)
					}
					rows = append(rows, []string{
						ph.PhaseID,
						label,
						colorState(ph.State),
						ph.Detail,
					})
				}
				headers := []string{"Phase", "Label", "State", "Detail"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
