package judge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		output  string
		want    Verdict
		wantErr error
	}{
		{"SAFE", Safe, nil},
		{"RISK", Risk, nil},
		{"safe", Safe, nil},
		{"  Risk  \n", Risk, nil},
		{"thinking...\nchecked rules\nSAFE\n\n", Safe, nil},
		{"SAFE\nbut actually\nRISK", Risk, nil},
		{"RISK\nSAFE", Safe, nil},
		{"", Indeterminate, ErrEmptyOutput},
		{"\n \n\t\n", Indeterminate, ErrEmptyOutput},
		{"SAFE.", Indeterminate, ErrAmbiguousOutput},
		{"It is SAFE", Indeterminate, ErrAmbiguousOutput},
		{"SAFE\nmaybe", Indeterminate, ErrAmbiguousOutput},
		{"ALLOW", Indeterminate, ErrAmbiguousOutput},
		{"SAFE RISK", Indeterminate, ErrAmbiguousOutput},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			got, err := Classify(tt.output)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "SAFE", Safe.String())
	assert.Equal(t, "RISK", Risk.String())
	assert.Equal(t, "INDETERMINATE", Indeterminate.String())
	assert.Equal(t, "INDETERMINATE", Verdict(42).String())
}

func TestNew(t *testing.T) {
	assert.IsType(t, &CodexJudge{}, New(Options{}))
	assert.IsType(t, &CodexJudge{}, New(Options{Backend: "codex"}))
	assert.IsType(t, &ClaudeJudge{}, New(Options{Backend: "claude"}))

	cj := New(Options{Backend: "claude"}).(*ClaudeJudge)
	assert.Equal(t, DefaultClaudeModel, cj.model)
	assert.Equal(t, DefaultTimeout, cj.timeout)
}

func TestStubJudge(t *testing.T) {
	s := &StubJudge{Output: "SAFE"}
	v, err := s.Evaluate(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Equal(t, Safe, v)
	assert.Equal(t, 1, s.Calls())
	assert.Equal(t, []string{"p1"}, s.Prompts())

	boom := errors.New("boom")
	s = &StubJudge{Output: "SAFE", Err: boom}
	v, err = s.Evaluate(context.Background(), "p")
	assert.Equal(t, Indeterminate, v)
	assert.ErrorIs(t, err, boom)

	s = &StubJudge{Missing: true}
	assert.ErrorIs(t, s.Available(), ErrJudgeUnavailable)

	s = &StubJudge{Output: "SAFE", Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	v, err = s.Evaluate(ctx, "p")
	assert.Equal(t, Indeterminate, v)
	assert.ErrorIs(t, err, ErrJudgeTimeout)
}

func TestClaudeJudgeUnavailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	j := NewClaudeJudge("", "", time.Second)

	assert.ErrorIs(t, j.Available(), ErrJudgeUnavailable)
	v, err := j.Evaluate(context.Background(), "prompt")
	assert.Equal(t, Indeterminate, v)
	assert.ErrorIs(t, err, ErrJudgeUnavailable)

	j = NewClaudeJudge(filepath.Join(t.TempDir(), "claude"), "", time.Second)
	assert.ErrorIs(t, j.Available(), ErrJudgeUnavailable)
}
