// Package audit records auto-approved tool calls as JSON Lines.
//
// Records are only ever appended. Writing is best-effort: the gate's
// decision is made before the record is written and never depends on it.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockTimeout    = 500 * time.Millisecond
	lockRetryDelay = 10 * time.Millisecond
)

var ErrLocked = errors.New("audit log is locked by another process")

// Record is one auto-approved action.
type Record struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	ToolName    string `json:"tool_name"`
	Description string `json:"description"`
	WorkingDir  string `json:"cwd"`
	SessionID   string `json:"session_id"`
	Judge       string `json:"judge,omitempty"`
}

// NewRecord stamps a record with a fresh id and the UTC time.
func NewRecord(toolName, description, cwd, sessionID, judge string, now time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		ToolName:    toolName,
		Description: description,
		WorkingDir:  cwd,
		SessionID:   sessionID,
		Judge:       judge,
	}
}

// Append writes rec as one line at the end of path, creating the parent
// directory if needed. The line goes out in a single write under an
// exclusive lock on path+".lock", so concurrent gates never interleave
// within a record.
func Append(path string, rec Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	data := buf.Bytes()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	return withLock(path, func() error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer f.Close()

		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}
		return nil
	})
}

// Encode writes rec as a single JSON line.
func Encode(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

func withLock(path string, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Join(ErrLocked, err)
	}
	if !locked {
		return ErrLocked
	}
	defer lock.Unlock() //nolint:errcheck // released on close anyway

	return fn()
}

// Logger is the gate's audit sink.
type Logger struct {
	path   string
	logger *zap.Logger
}

// NewLogger returns a sink appending to path.
func NewLogger(path string, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{path: path, logger: logger}
}

// Path returns the log file the sink writes to.
func (l *Logger) Path() string { return l.path }

// Write appends rec. Failures are logged and dropped.
func (l *Logger) Write(rec Record) {
	if err := Append(l.path, rec); err != nil {
		l.logger.Warn("audit write failed",
			zap.String("path", l.path),
			zap.String("id", rec.ID),
			zap.Error(err),
		)
		return
	}
	l.logger.Debug("audit record written",
		zap.String("path", l.path),
		zap.String("id", rec.ID),
	)
}
