package judge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubJudge is a deterministic in-memory judge for tests.
type StubJudge struct {
	Output  string        // classified like real judge output
	Err     error         // returned with Indeterminate when set
	Delay   time.Duration // simulated latency, cut short by ctx
	Missing bool          // Available fails

	mu      sync.Mutex
	prompts []string
}

func (s *StubJudge) Name() string { return "stub" }

func (s *StubJudge) Available() error {
	if s.Missing {
		return fmt.Errorf("%w: stub", ErrJudgeUnavailable)
	}
	return nil
}

func (s *StubJudge) Evaluate(ctx context.Context, prompt string) (Verdict, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.Missing {
		return Indeterminate, s.Available()
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return Indeterminate, fmt.Errorf("%w: %v", ErrJudgeTimeout, ctx.Err())
		}
	}
	if s.Err != nil {
		return Indeterminate, s.Err
	}
	return Classify(s.Output)
}

// Calls returns how many times Evaluate ran.
func (s *StubJudge) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns the prompts Evaluate received.
func (s *StubJudge) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
