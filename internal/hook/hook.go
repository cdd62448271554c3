// Package hook parses the PermissionRequest payload handed to the gate.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// DataEnv carries the raw hook JSON from the notifier.
const DataEnv = "ZUNDAMON_HOOK_DATA"

// DefaultSessionID is used when the payload has no session_id.
const DefaultSessionID = "default"

var (
	ErrEmptyPayload   = errors.New("empty hook payload")
	ErrInvalidPayload = errors.New("invalid hook payload")
)

// Event is one tool invocation awaiting permission. ToolInput is untrusted.
type Event struct {
	ToolName   string
	ToolInput  map[string]any  // never nil
	RawInput   json.RawMessage // tool_input bytes as sent, key order intact; {} when absent
	WorkingDir string
	SessionID  string
}

var emptyInput = json.RawMessage(`{}`)

// Parse decodes a raw payload. Only an empty payload or one that is not a
// JSON object is rejected; missing or mistyped fields take their defaults.
func Parse(raw []byte) (*Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrInvalidPayload)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: payload is null", ErrInvalidPayload)
	}

	ev := &Event{
		ToolName:   stringField(fields, "tool_name", ""),
		WorkingDir: stringField(fields, "cwd", ""),
		SessionID:  stringField(fields, "session_id", DefaultSessionID),
		ToolInput:  map[string]any{},
		RawInput:   emptyInput,
	}

	if in, ok := fields["tool_input"]; ok && !bytes.Equal(in, []byte("null")) {
		ev.RawInput = in
		if len(in) > 0 && in[0] == '{' {
			var m map[string]any
			d := json.NewDecoder(bytes.NewReader(in))
			d.UseNumber()
			if err := d.Decode(&m); err == nil && m != nil {
				ev.ToolInput = m
			}
		}
	}

	return ev, nil
}

// ReadEnv returns the payload from ZUNDAMON_HOOK_DATA.
func ReadEnv() []byte {
	return []byte(os.Getenv(DataEnv))
}

// ReadAll returns the payload from r, typically stdin.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

func stringField(fields map[string]json.RawMessage, key, def string) string {
	v, ok := fields[key]
	if !ok || len(v) == 0 || v[0] != '"' {
		return def
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return def
	}
	return s
}
