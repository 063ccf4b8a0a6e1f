package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/ipc"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage curriculum plans",
	}
	cmd.AddCommand(newPlanListCommand(ctx))
	cmd.AddCommand(newPlanShowCommand(ctx))
	cmd.AddCommand(newPlanCreateCommand(ctx))
	cmd.AddCommand(newPlanImportCommand(ctx))
	return cmd
}

func newPlanListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PlanList()
				if err != nil {
					return fmt.Errorf("list plans: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Plans)
				}
				if len(resp.Plans) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No plans stored.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Plans))
				for _, p := range resp.Plans {
					rows = append(rows, []string{
						p.ID,
						p.Title,
						strconv.Itoa(p.Modules),
						strconv.Itoa(p.Lessons),
						strconv.Itoa(p.MissingLessons),
						strconv.Itoa(p.MissingScripts),
						formatTime(p.UpdatedAt),
					})
				}
				headers := []string{"ID", "Title", "Modules", "Lessons", "Missing Lessons", "Missing Scripts", "Updated"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPlanShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PlanShow(ipc.PlanShowRequest{PlanID: args[0]})
				if err != nil {
					return fmt.Errorf("show plan: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Plan)
				}
				printPlanSummary(cmd, resp.Plan)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPlanCreateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new empty plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PlanCreate(ipc.PlanCreateRequest{Title: args[0]})
				if err != nil {
					return fmt.Errorf("create plan: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Plan)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s (%s)\n", resp.Plan.ID, resp.Plan.Title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPlanImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a plan document from a JSON file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PlanImport(ipc.PlanImportRequest{Document: document})
				if err != nil {
					return fmt.Errorf("import plan: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Plan)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported plan %s (%s)\n", resp.Plan.ID, resp.Plan.Title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printPlanSummary(cmd *cobra.Command, p api.PlanSummary) {
	rows := [][]string{
		{"ID", p.ID},
		{"Title", p.Title},
		{"Modules", strconv.Itoa(p.Modules)},
		{"Lessons", strconv.Itoa(p.Lessons)},
		{"Modules missing lessons", strconv.Itoa(p.MissingLessons)},
		{"Lessons missing scripts", strconv.Itoa(p.MissingScripts)},
		{"Created", formatTime(p.CreatedAt)},
		{"Updated", formatTime(p.UpdatedAt)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
}
