// Package gate decides whether a tool call is auto-approved.
//
// The pipeline is linear: payload, config, judge availability, judgment.
// Every step that does not end in a SAFE verdict yields the same Fallback
// outcome; the reason is kept for diagnostics only.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasei-san/zundamon-notify/internal/audit"
	"github.com/kasei-san/zundamon-notify/internal/config"
	"github.com/kasei-san/zundamon-notify/internal/hook"
	"github.com/kasei-san/zundamon-notify/internal/judge"
	"github.com/kasei-san/zundamon-notify/internal/prescreen"
	"github.com/kasei-san/zundamon-notify/internal/prompt"
	"go.uber.org/zap"
)

var (
	ErrPayloadInvalid    = errors.New("payload invalid")
	ErrConfigUnavailable = errors.New("config unavailable")
	ErrDisabled          = errors.New("auto-approve disabled")
	ErrPrescreened       = errors.New("flagged by pre-screen")
	ErrJudgedRisk        = errors.New("judge answered RISK")
)

// Decision is the only thing the caller of the gate learns.
type Decision int

const (
	Fallback Decision = iota
	Approved
)

func (d Decision) String() string {
	if d == Approved {
		return "approved"
	}
	return "fallback"
}

// Outcome is the result of one gate run.
type Outcome struct {
	Decision    Decision
	Verdict     judge.Verdict
	Reason      error // nil only when Approved
	Description string
	Record      *audit.Record // set when Approved
}

// ExitCode maps the outcome to the process exit status.
func (o Outcome) ExitCode() int {
	if o.Decision == Approved {
		return 0
	}
	return 1
}

// AuditWriter receives records for approved calls. Write must not fail
// the caller; audit.Logger satisfies it.
type AuditWriter interface {
	Write(rec audit.Record)
}

// Gate wires the collaborators. Zero-valued fields get production defaults
// from New.
type Gate struct {
	LoadConfig func() config.Config
	NewJudge   func(cfg config.Config) judge.Judge
	NewAudit   func(path string) AuditWriter
	Now        func() time.Time
	Logger     *zap.Logger
}

// New returns a gate using the per-user config, the configured judge
// backend and the JSONL audit log.
func New(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		LoadConfig: func() config.Config { return config.Load(logger) },
		NewJudge:   JudgeFor,
		NewAudit:   func(path string) AuditWriter { return audit.NewLogger(path, logger) },
		Now:        time.Now,
		Logger:     logger,
	}
}

// JudgeFor builds the judge named in cfg.
func JudgeFor(cfg config.Config) judge.Judge {
	return judge.New(judge.Options{
		Backend: cfg.Judge,
		Command: cfg.JudgeCommand,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
}

// Decide runs the gate over a raw hook payload.
func (g *Gate) Decide(ctx context.Context, raw []byte) Outcome {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ev, err := hook.Parse(raw)
	if err != nil {
		return g.fallback(logger, judge.Indeterminate, fmt.Errorf("%w: %w", ErrPayloadInvalid, err))
	}
	logger = logger.With(
		zap.String("tool_name", ev.ToolName),
		zap.String("session_id", ev.SessionID),
	)

	cfg := g.LoadConfig()
	if !cfg.Loaded {
		return g.fallback(logger, judge.Indeterminate, fmt.Errorf("%w: %s", ErrConfigUnavailable, cfg.Path))
	}
	if !cfg.Enabled {
		return g.fallback(logger, judge.Indeterminate, ErrDisabled)
	}

	j := g.NewJudge(cfg)
	if err := j.Available(); err != nil {
		return g.fallback(logger, judge.Indeterminate, err)
	}

	description := prompt.Describe(ev.ToolInput, ev.RawInput)

	if cfg.Prescreen {
		if r := prescreen.Screen(ev.ToolName, ev.ToolInput); r.Risky {
			out := g.fallback(logger, judge.Indeterminate, fmt.Errorf("%w: %s", ErrPrescreened, r.Reason))
			out.Description = description
			return out
		}
	}

	p := prompt.Build(ev.ToolName, ev.RawInput, ev.WorkingDir, description)

	start := time.Now()
	verdict, err := j.Evaluate(ctx, p)
	logger.Debug("judge finished",
		zap.String("judge", j.Name()),
		zap.Stringer("verdict", verdict),
		zap.Duration("latency", time.Since(start)),
	)

	if verdict != judge.Safe {
		reason := err
		if verdict == judge.Risk {
			reason = ErrJudgedRisk
		} else if reason == nil {
			reason = errors.New("judge returned no verdict")
		}
		out := g.fallback(logger, verdict, reason)
		out.Description = description
		return out
	}

	rec := audit.NewRecord(ev.ToolName, description, ev.WorkingDir, ev.SessionID, j.Name(), g.now())
	g.writeAudit(logger, cfg.LogFile, rec)

	logger.Info("auto-approved",
		zap.String("description", prompt.Truncate(description, prompt.MaxDescriptionLen)),
		zap.String("cwd", ev.WorkingDir),
	)
	return Outcome{
		Decision:    Approved,
		Verdict:     judge.Safe,
		Description: description,
		Record:      &rec,
	}
}

// writeAudit is fire-and-forget: neither an error nor a panic in the
// writer may change an approval already decided.
func (g *Gate) writeAudit(logger *zap.Logger, path string, rec audit.Record) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("audit writer panicked", zap.Any("panic", r))
		}
	}()
	if g.NewAudit == nil {
		return
	}
	g.NewAudit(path).Write(rec)
}

func (g *Gate) fallback(logger *zap.Logger, verdict judge.Verdict, reason error) Outcome {
	switch {
	case errors.Is(reason, judge.ErrJudgeTimeout), errors.Is(reason, judge.ErrJudgeFailed):
		logger.Warn("judge failed, falling back to manual approval", zap.Error(reason))
	default:
		logger.Info("falling back to manual approval", zap.Error(reason))
	}
	return Outcome{Decision: Fallback, Verdict: verdict, Reason: reason}
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
