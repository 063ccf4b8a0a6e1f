package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/ipc"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs <plan-id>",
		Short: "List repair runs for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunList(ipc.RunListRequest{PlanID: args[0]})
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Runs)
				}
				if len(resp.Runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Runs))
				for _, run := range resp.Runs {
					rows = append(rows, runRow(run))
				}
				headers := []string{"Run", "Status", "Phases", "Started", "Finished", "Error"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
				return nil
			})
		},
	}

	cmd.AddCommand(newRunShowCommand(ctx))
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRunShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one repair run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunShow(ipc.RunShowRequest{RunID: args[0]})
				if err != nil {
					return fmt.Errorf("show run: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Run)
				}

				run := resp.Run
				rows := [][]string{
					{"ID", run.ID},
					{"Plan", run.PlanID},
					{"Status", colorState(run.Status)},
					{"Phases", joinPhases(run.Phases)},
					{"Created", formatTime(run.CreatedAt)},
					{"Started", formatTimePtr(run.StartedAt)},
					{"Finished", formatTimePtr(run.FinishedAt)},
				}
				if run.ErrorMessage != "" {
					rows = append(rows, []string{"Error", run.ErrorMessage})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func runRow(run api.RunView) []string {
	return []string{
		run.ID,
		colorState(run.Status),
		joinPhases(run.Phases),
		formatTimePtr(run.StartedAt),
		formatTimePtr(run.FinishedAt),
		run.ErrorMessage,
	}
}
