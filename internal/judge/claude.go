package judge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/victorarias/claude-agent-sdk-go/sdk"
	"github.com/victorarias/claude-agent-sdk-go/types"
)

// DefaultClaudeModel is used when auto_approve.model is empty.
const DefaultClaudeModel = "claude-haiku-4-5"

// ClaudeJudge asks Claude through the agent SDK, one turn per prompt.
type ClaudeJudge struct {
	command string
	model   string
	timeout time.Duration
}

// NewClaudeJudge creates an SDK-backed judge. command is the CLI the SDK
// drives, resolved on PATH when it is not a path.
func NewClaudeJudge(command, model string, timeout time.Duration) *ClaudeJudge {
	if command == "" {
		command = "claude"
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ClaudeJudge{command: command, model: model, timeout: timeout}
}

func (j *ClaudeJudge) Name() string { return "claude" }

func (j *ClaudeJudge) Available() error {
	_, err := j.resolve()
	return err
}

func (j *ClaudeJudge) resolve() (string, error) {
	path, err := exec.LookPath(j.command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrJudgeUnavailable, j.command, err)
	}
	return path, nil
}

type claudeResult struct {
	text string
	err  error
}

// Evaluate runs the query in a goroutine so the deadline holds even if the
// SDK ignores cancellation. After the deadline it waits up to waitDelay for
// the SDK to kill and reap its CLI process.
func (j *ClaudeJudge) Evaluate(ctx context.Context, prompt string) (Verdict, error) {
	path, err := j.resolve()
	if err != nil {
		return Indeterminate, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	done := make(chan claudeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- claudeResult{err: fmt.Errorf("%w: panic: %v", ErrJudgeFailed, r)}
			}
		}()
		text, err := j.query(ctx, path, prompt)
		done <- claudeResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return Indeterminate, fmt.Errorf("%w after %s", ErrJudgeTimeout, j.timeout)
			}
			return Indeterminate, res.err
		}
		return Classify(res.text)
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(waitDelay):
		}
		return Indeterminate, fmt.Errorf("%w after %s", ErrJudgeTimeout, j.timeout)
	}
}

func (j *ClaudeJudge) query(ctx context.Context, cliPath, prompt string) (string, error) {
	messages, err := sdk.RunQuery(ctx, prompt,
		types.WithCLIPath(cliPath),
		types.WithModel(j.model),
		types.WithMaxTurns(1),
	)
	if err != nil {
		return "", fmt.Errorf("%w: sdk: %v", ErrJudgeFailed, err)
	}

	var parts []string
	for _, msg := range messages {
		if m, ok := msg.(*types.AssistantMessage); ok {
			if text := m.Text(); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
