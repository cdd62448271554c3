// Package judge asks an external oracle whether a tool call is SAFE or RISK.
//
// Every failure (missing executable, timeout, crash, unreadable answer) maps
// to Indeterminate. Evaluate reports the cause as an error for diagnostics;
// callers must treat anything but Safe as "do not auto-approve".
package judge

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verdict is the judge's answer.
type Verdict int

const (
	Indeterminate Verdict = iota
	Safe
	Risk
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "SAFE"
	case Risk:
		return "RISK"
	default:
		return "INDETERMINATE"
	}
}

var (
	ErrJudgeUnavailable = errors.New("judge executable not found")
	ErrJudgeTimeout     = errors.New("judge exceeded deadline")
	ErrJudgeFailed      = errors.New("judge process failed")
	ErrEmptyOutput      = errors.New("judge produced no output")
	ErrAmbiguousOutput  = errors.New("judge output is not SAFE or RISK")
)

// DefaultTimeout bounds a single judge invocation.
const DefaultTimeout = 10 * time.Second

// Judge evaluates a rendered prompt.
type Judge interface {
	// Name identifies the backend in logs and audit records.
	Name() string

	// Available reports ErrJudgeUnavailable when the backend cannot run.
	Available() error

	// Evaluate returns Safe or Risk with a nil error, or Indeterminate with
	// the reason. It must return once ctx or the judge's own deadline expires.
	Evaluate(ctx context.Context, prompt string) (Verdict, error)
}

// Classify maps judge output to a verdict using its last non-empty line,
// trimmed and compared case-insensitively.
func Classify(output string) (Verdict, error) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.ToUpper(strings.TrimSpace(lines[i]))
		if line == "" {
			continue
		}
		switch line {
		case "SAFE":
			return Safe, nil
		case "RISK":
			return Risk, nil
		default:
			return Indeterminate, ErrAmbiguousOutput
		}
	}
	return Indeterminate, ErrEmptyOutput
}

// Options selects and configures a backend.
type Options struct {
	Backend string // "codex" (default) or "claude"
	Command string // executable name or path; defaults to the backend name
	Model   string // claude only
	Timeout time.Duration
}

// New returns the backend described by opts.
func New(opts Options) Judge {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch opts.Backend {
	case "claude":
		return NewClaudeJudge(opts.Command, opts.Model, timeout)
	default:
		return NewCodexJudge(opts.Command, timeout)
	}
}
