// Package prompt renders the risk judgment request sent to the judge.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// MaxInputLen caps the serialized tool input embedded in the prompt.
	MaxInputLen = 500
	// MaxDescriptionLen caps the fallback description rendered from tool input.
	MaxDescriptionLen = 200
)

const template = `You are a security risk assessor for CLI tool executions.
Evaluate the following tool execution and respond with EXACTLY one word: "SAFE" or "RISK".

Rules for RISK:
- AWS/GCP/Azure destructive operations (delete, terminate, destroy, etc.)
- terraform apply/destroy
- git push --force, git reset --hard
- rm -rf, mass deletion
- sudo operations, sending secrets externally
- DB DROP/TRUNCATE
- curl/wget posting data to external URLs
- Package install with suspicious sources

Rules for SAFE:
- File reading (cat, head, tail, less, Read, Grep, Glob)
- Git read operations (status, log, diff, branch)
- ls, pwd, find (without deletion)
- Code editing (Edit, Write)
- Test execution, lint, format
- npm test, npm run build
- echo, printf (local only)

When in doubt, respond "RISK".

Tool: %s
Input: %s
Working directory: %s
Description: %s

Your assessment (one word only):`

// Build renders the prompt. The serialized tool input is truncated to
// MaxInputLen characters, never rejected.
func Build(toolName string, toolInput json.RawMessage, cwd, description string) string {
	return fmt.Sprintf(template, toolName, Truncate(Render(toolInput), MaxInputLen), cwd, description)
}

// Describe picks the human-readable summary of a tool call: the command,
// else the description, else the rendered input cut to MaxDescriptionLen.
func Describe(toolInput map[string]any, raw json.RawMessage) string {
	for _, key := range []string{"command", "description"} {
		if s, ok := toolInput[key].(string); ok && s != "" {
			return s
		}
	}
	return Truncate(Render(raw), MaxDescriptionLen)
}

// Render re-serializes raw JSON in its original key order, with ", " and
// ": " separators and no HTML or non-ASCII escaping. Invalid input is
// returned as is.
func Render(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := writeValue(&buf, dec); err != nil {
		return string(raw)
	}
	return buf.String()
}

func writeValue(buf *bytes.Buffer, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		start, end := byte(t), byte('}')
		if t == '[' {
			end = ']'
		}
		buf.WriteByte(start)
		for first := true; dec.More(); first = false {
			if !first {
				buf.WriteString(", ")
			}
			if t == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				writeString(buf, key.(string))
				buf.WriteString(": ")
			}
			if err := writeValue(buf, dec); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(end)
	case string:
		writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1)
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
