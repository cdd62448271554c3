package main

import (
	"fmt"

	"github.com/kasei-san/zundamon-notify/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConfigCmd(logger *zap.Logger, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective auto-approve configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(logger)
			w := cmd.OutOrStdout()

			status := "loaded"
			if !cfg.Loaded {
				status = "missing or unreadable"
			}
			fmt.Fprintf(w, "config:        %s (%s)\n", cfg.Path, status)
			fmt.Fprintf(w, "enabled:       %t\n", cfg.Enabled)
			fmt.Fprintf(w, "log_file:      %s\n", cfg.LogFile)
			fmt.Fprintf(w, "judge:         %s\n", cfg.Judge)
			fmt.Fprintf(w, "judge_command: %s\n", cfg.JudgeCommand)
			if cfg.Model != "" {
				fmt.Fprintf(w, "model:         %s\n", cfg.Model)
			}
			fmt.Fprintf(w, "timeout:       %s\n", cfg.Timeout)
			fmt.Fprintf(w, "prescreen:     %t\n", cfg.Prescreen)
			*exitCode = 0
			return nil
		},
	}
}
