package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kasei-san/zundamon-notify/internal/gate"
	"github.com/kasei-san/zundamon-notify/internal/hook"
	"go.uber.org/zap"
)

// runGate reads the payload, decides, and reports the decision on stdout.
func runGate(ctx context.Context, logger *zap.Logger, fromStdin bool, stdin io.Reader, stdout io.Writer) int {
	var raw []byte
	if fromStdin {
		data, err := hook.ReadAll(stdin)
		if err != nil {
			logger.Info("failed to read payload from stdin", zap.Error(err))
			return 1
		}
		raw = data
	} else {
		raw = hook.ReadEnv()
	}

	out := gate.New(logger).Decide(ctx, raw)
	if out.Decision == gate.Approved {
		fmt.Fprintln(stdout, "SAFE")
	}
	return out.ExitCode()
}
