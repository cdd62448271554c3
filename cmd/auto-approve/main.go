// Command auto-approve is the permission gate run before a tool call.
//
// Exit status 0 with "SAFE" on stdout approves the call; any other result
// hands it to the manual approval notification.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kasei-san/zundamon-notify/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit status.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := logging.FromEnv()
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 1
	root := newRootCmd(logger, stdin, &exitCode)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Debug("command failed", zap.Error(err))
		return 1
	}
	return exitCode
}

func newRootCmd(logger *zap.Logger, stdin io.Reader, exitCode *int) *cobra.Command {
	var fromStdin bool

	root := &cobra.Command{
		Use:   "auto-approve",
		Short: "Decide whether a pending tool call can be approved automatically",
		Long: `Reads a PermissionRequest hook payload from $ZUNDAMON_HOOK_DATA (or stdin
with --stdin), asks the configured judge for a SAFE/RISK verdict and prints
SAFE with exit status 0 when the call may proceed. Anything else exits 1 so
the manual approval flow takes over.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = runGate(cmd.Context(), logger, fromStdin, stdin, cmd.OutOrStdout())
			return nil
		},
	}
	root.Flags().BoolVar(&fromStdin, "stdin", false, "read the hook payload from stdin instead of $ZUNDAMON_HOOK_DATA")

	root.AddCommand(newAuditCmd(logger, exitCode))
	root.AddCommand(newConfigCmd(logger, exitCode))
	return root
}
