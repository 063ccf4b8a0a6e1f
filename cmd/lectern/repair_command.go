package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/ipc"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	var phases []string
	var follow bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "repair <plan-id>",
		Short: "Start a repair run for the selected phases",
		Long: strings.TrimSpace(`
Start a repair run that re-executes the selected pipeline phases against a
plan. Phases execute in pipeline order regardless of the order given on the
command line. Only one run per plan may be active at a time.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(phases) == 0 {
				return fmt.Errorf("at least one --phase is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Repair(ipc.RepairRequest{PlanID: args[0], Phases: phases})
				if err != nil {
					return fmt.Errorf("start repair: %w", err)
				}
				if jsonOutput && !follow {
					return writeJSON(cmd, resp.Run)
				}

				run := resp.Run
				fmt.Fprintf(cmd.OutOrStdout(), "Started run %s for plan %s (phases: %s)\n",
					run.ID, run.PlanID, strings.Join(run.Phases, ", "))
				if !follow {
					return nil
				}
				if err := followRunLogs(cmd, client, run.ID); err != nil {
					return err
				}
				return reportRunOutcome(cmd, client, run.ID)
			})
		},
	}

	cmd.Flags().StringSliceVar(&phases, "phase", nil, "Phase to re-execute (repeatable)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream execution logs until the run terminates")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}

// followRunLogs polls the daemon for log records until the run's log is
// fully delivered. The Wait flag makes each poll block server-side until
// new records arrive.
func followRunLogs(cmd *cobra.Command, client *ipc.Client, runID string) error {
	var since uint64
	for {
		resp, err := client.Logs(ipc.LogsRequest{RunID: runID, Since: since, Wait: true})
		if err != nil {
			return fmt.Errorf("fetch logs: %w", err)
		}
		page := resp.Page
		for _, rec := range page.Records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rec.Time.Local().Format("15:04:05"), rec.Line)
		}
		since = page.Next
		if page.Done {
			return nil
		}
	}
}

func reportRunOutcome(cmd *cobra.Command, client *ipc.Client, runID string) error {
	resp, err := client.RunShow(ipc.RunShowRequest{RunID: runID})
	if err != nil {
		return fmt.Errorf("fetch run: %w", err)
	}
	run := resp.Run
	if run.ErrorMessage != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s %s: %s\n", run.ID, colorState(run.Status), run.ErrorMessage)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s %s\n", run.ID, colorState(run.Status))
	}
	if run.Status != "succeeded" {
		return fmt.Errorf("run %s finished with status %s", run.ID, run.Status)
	}
	return nil
}
