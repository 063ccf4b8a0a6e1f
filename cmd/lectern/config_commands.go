package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lectern configuration",
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigPathCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	return cmd
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file location",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(*ctx.configFlag))
				return nil
			}
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Data directory", cfg.Paths.DataDir},
				{"Log directory", cfg.Paths.LogDir},
				{"API bind", cfg.Paths.APIBind},
				{"Log level", cfg.Logging.Level},
				{"Log format", cfg.Logging.Format},
				{"Generation base URL", cfg.Generation.BaseURL},
				{"Generation model", cfg.Generation.Model},
				{"Generation API key set", yesNo(strings.TrimSpace(cfg.Generation.APIKey) != "")},
				{"Request timeout (s)", fmt.Sprintf("%d", cfg.Generation.RequestTimeout)},
				{"Inactivity timeout (s)", fmt.Sprintf("%d", cfg.Repair.InactivityTimeout)},
				{"Archived run limit", fmt.Sprintf("%d", cfg.Repair.ArchivedRunLimit)},
				{"Database", cfg.DatabasePath()},
				{"Socket", cfg.SocketPath()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
	return cmd
}
