package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 123, time.FixedZone("JST", 9*3600))
	rec := NewRecord("Bash", "ls -la", "/tmp", "s1", "codex", now)

	assert.Equal(t, "2026-03-01T00:30:00.000000123Z", rec.Timestamp)
	assert.Equal(t, "Bash", rec.ToolName)
	assert.Equal(t, "ls -la", rec.Description)
	assert.Equal(t, "/tmp", rec.WorkingDir)
	assert.Equal(t, "s1", rec.SessionID)
	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
}

func TestAppend_CreatesDirAndWritesJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "auto-approve.log")
	rec := NewRecord("Bash", "ls -la", "/tmp", "s1", "codex", time.Now())

	require.NoError(t, Append(path, rec))

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "Bash", got["tool_name"])
	assert.Equal(t, "ls -la", got["description"])
	assert.Equal(t, "/tmp", got["cwd"])
	assert.Equal(t, "s1", got["session_id"])
	assert.Contains(t, got, "timestamp")
}

func TestAppend_KeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-approve.log")
	require.NoError(t, os.WriteFile(path, []byte(`{"tool_name":"old"}`+"\n"), 0o644))

	require.NoError(t, Append(path, NewRecord("Edit", "d", "", "s", "", time.Now())))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, `{"tool_name":"old"}`, lines[0])
}

func TestAppend_UnicodeIsNotEscaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-approve.log")
	require.NoError(t, Append(path, NewRecord("Bash", "echo ずんだ", "", "s", "", time.Now())))
	assert.Contains(t, readLines(t, path)[0], "echo ずんだ")
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-approve.log")
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			desc := fmt.Sprintf("cmd-%d %s", i, strings.Repeat("x", 2000))
			assert.NoError(t, Append(path, NewRecord("Bash", desc, "/p", "s", "", time.Now())))
		}(i)
	}
	wg.Wait()

	lines := readLines(t, path)
	require.Len(t, lines, n)
	for _, l := range lines {
		var rec Record
		assert.NoError(t, json.Unmarshal([]byte(l), &rec))
	}
}

func TestAppend_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Append(filepath.Join(blocker, "auto-approve.log"), NewRecord("Bash", "ls", "", "s", "", time.Now()))
	assert.Error(t, err)
}

func TestAppend_HeldLockGivesUpQuickly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-approve.log")
	held := flock.New(path + ".lock")
	require.NoError(t, held.Lock())
	defer held.Unlock()

	start := time.Now()
	err := Append(path, NewRecord("Bash", "ls", "", "s", "", time.Now()))
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrLocked)
	assert.Less(t, elapsed, lockTimeout+500*time.Millisecond)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoggerWrite_SwallowsFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	core, logs := observer.New(zap.WarnLevel)
	l := NewLogger(filepath.Join(blocker, "auto-approve.log"), zap.New(core))

	assert.NotPanics(t, func() {
		l.Write(NewRecord("Bash", "ls", "", "s", "", time.Now()))
	})
	assert.Equal(t, 1, logs.FilterMessage("audit write failed").Len())
}

func TestLoggerWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-approve.log")
	l := NewLogger(path, nil)
	assert.Equal(t, path, l.Path())

	l.Write(NewRecord("Bash", "ls", "", "s", "", time.Now()))
	l.Write(NewRecord("Bash", "ls", "", "s", "", time.Now()))

	recs, err := Read(path, Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}
