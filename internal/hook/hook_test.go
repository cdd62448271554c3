package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `{
		"session_id": "test-session",
		"tool_name": "Bash",
		"tool_input": {
			"command": "kubectl get pods",
			"description": "List pods"
		},
		"cwd": "/Users/zunda/projects/myapp"
	}`

	ev, err := Parse([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, "Bash", ev.ToolName)
	assert.Equal(t, "test-session", ev.SessionID)
	assert.Equal(t, "/Users/zunda/projects/myapp", ev.WorkingDir)
	assert.Equal(t, "kubectl get pods", ev.ToolInput["command"])
}

func TestParse_Defaults(t *testing.T) {
	ev, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "", ev.ToolName)
	assert.Equal(t, "", ev.WorkingDir)
	assert.Equal(t, DefaultSessionID, ev.SessionID)
	assert.NotNil(t, ev.ToolInput)
	assert.Empty(t, ev.ToolInput)
	assert.Equal(t, `{}`, string(ev.RawInput))
}

func TestParse_NullToolInput(t *testing.T) {
	ev, err := Parse([]byte(`{"tool_input": null}`))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(ev.RawInput))
	assert.Empty(t, ev.ToolInput)
}

func TestParse_RawInputKeepsKeyOrder(t *testing.T) {
	ev, err := Parse([]byte(`{"tool_name":"Write","tool_input":{"file_path":"/home/u/.bashrc","content":"x"}}`))
	require.NoError(t, err)

	assert.Equal(t, `{"file_path":"/home/u/.bashrc","content":"x"}`, string(ev.RawInput))
	assert.Equal(t, "/home/u/.bashrc", ev.ToolInput["file_path"])
}

func TestParse_MistypedFieldsUseDefaults(t *testing.T) {
	ev, err := Parse([]byte(`{"tool_name": 42, "cwd": ["x"], "session_id": null, "tool_input": "rm -rf /"}`))
	require.NoError(t, err)

	assert.Equal(t, "", ev.ToolName)
	assert.Equal(t, "", ev.WorkingDir)
	assert.Equal(t, DefaultSessionID, ev.SessionID)
	assert.Empty(t, ev.ToolInput)
	assert.JSONEq(t, `"rm -rf /"`, string(ev.RawInput))
}

func TestParse_EmptySessionIDKept(t *testing.T) {
	ev, err := Parse([]byte(`{"session_id": ""}`))
	require.NoError(t, err)
	assert.Equal(t, "", ev.SessionID)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyPayload},
		{"whitespace", "  \n\t", ErrEmptyPayload},
		{"not json", "tool_name=Bash", ErrInvalidPayload},
		{"truncated", `{"tool_name": "Bash"`, ErrInvalidPayload},
		{"array", `["Bash"]`, ErrInvalidPayload},
		{"string", `"Bash"`, ErrInvalidPayload},
		{"null", `null`, ErrInvalidPayload},
		{"trailing", `{"tool_name": "Bash"} {}`, ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.raw))
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadEnv(t *testing.T) {
	t.Setenv(DataEnv, `{"tool_name":"Edit"}`)
	assert.Equal(t, `{"tool_name":"Edit"}`, string(ReadEnv()))
}
