package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/kasei-san/zundamon-notify/internal/audit"
	"github.com/kasei-san/zundamon-notify/internal/config"
	"github.com/kasei-san/zundamon-notify/internal/prompt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAuditCmd(logger *zap.Logger, exitCode *int) *cobra.Command {
	var (
		filter  audit.Filter
		file    string
		asJSON  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List auto-approved tool calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = 1
			path := file
			if path == "" {
				path = config.Load(logger).LogFile
			}

			records, err := audit.Read(path, filter)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "read %s: %v\n", path, err)
				return err
			}

			if asJSON {
				for _, r := range records {
					if err := audit.Encode(cmd.OutOrStdout(), r); err != nil {
						return err
					}
				}
			} else {
				printRecords(cmd.OutOrStdout(), records, noColor)
			}
			*exitCode = 0
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.SessionID, "session", "", "only records from this session id")
	cmd.Flags().StringVar(&filter.ToolName, "tool", "", "only records for this tool")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "show the newest N records (0 for all)")
	cmd.Flags().StringVar(&file, "file", "", "audit log to read (default: configured log_file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON Lines")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func printRecords(w io.Writer, records []audit.Record, noColor bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no auto-approved calls recorded")
		return
	}

	ts := color.New(color.FgHiBlack)
	tool := color.New(color.FgGreen, color.Bold)
	session := color.New(color.FgCyan)
	for _, c := range []*color.Color{ts, tool, session} {
		if noColor {
			c.DisableColor()
		}
	}

	for _, r := range records {
		when := r.Timestamp
		if t, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
			when = t.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s %s %s %s\n    %s\n",
			ts.Sprint(when),
			tool.Sprint(r.ToolName),
			session.Sprint(r.SessionID),
			r.WorkingDir,
			prompt.Truncate(r.Description, prompt.MaxDescriptionLen),
		)
	}
}
