package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// waitDelay bounds how long Wait keeps draining pipes after the child is killed.
	waitDelay = 2 * time.Second
	// maxStderr is how much judge stderr is kept for diagnostics.
	maxStderr = 4 << 10
)

// CodexJudge runs `codex exec --ephemeral -` with the prompt on stdin.
type CodexJudge struct {
	command string
	timeout time.Duration
}

// NewCodexJudge creates a subprocess judge. An empty command means "codex".
func NewCodexJudge(command string, timeout time.Duration) *CodexJudge {
	if command == "" {
		command = "codex"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CodexJudge{command: command, timeout: timeout}
}

func (j *CodexJudge) Name() string { return "codex" }

func (j *CodexJudge) Available() error {
	if _, err := exec.LookPath(j.command); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrJudgeUnavailable, j.command, err)
	}
	return nil
}

// Evaluate launches the judge under a hard deadline. On expiry the child's
// process group is killed and the child reaped before returning.
func (j *CodexJudge) Evaluate(ctx context.Context, prompt string) (verdict Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			verdict, err = Indeterminate, fmt.Errorf("%w: panic: %v", ErrJudgeFailed, r)
		}
	}()

	path, err := exec.LookPath(j.command)
	if err != nil {
		return Indeterminate, fmt.Errorf("%w: %s: %v", ErrJudgeUnavailable, j.command, err)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &cappedBuffer{max: maxStderr}

	cmd := exec.CommandContext(ctx, path, "exec", "--ephemeral", "-")
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	runErr := cmd.Run()

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Indeterminate, fmt.Errorf("%w after %s", ErrJudgeTimeout, j.timeout)
		}
		return Indeterminate, fmt.Errorf("%w: %v: %s", ErrJudgeFailed, runErr, strings.TrimSpace(stderr.String()))
	}

	return Classify(stdout.String())
}

// cappedBuffer keeps the first max bytes written and discards the rest
// without reporting short writes to the child.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return b.buf.String() }
