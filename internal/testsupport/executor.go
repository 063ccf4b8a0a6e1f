package testsupport

import (
	"context"
	"sync"
)

// ScriptedExecutor runs a per-phase function, recording the order in which
// phases execute. A nil script for a phase succeeds immediately.
type ScriptedExecutor struct {
	mu      sync.Mutex
	scripts map[string]func(ctx context.Context, emit func(string)) error
	order   []string
}

// NewScriptedExecutor builds an executor with no phase scripts.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{scripts: make(map[string]func(ctx context.Context, emit func(string)) error)}
}

// Script installs the function to run for the given phase.
func (s *ScriptedExecutor) Script(phaseID string, fn func(ctx context.Context, emit func(string)) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[phaseID] = fn
}

// Execute records the phase and runs its script.
func (s *ScriptedExecutor) Execute(ctx context.Context, planID, phaseID string, emit func(string)) error {
	s.mu.Lock()
	s.order = append(s.order, phaseID)
	fn := s.scripts[phaseID]
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, emit)
}

// Executed returns the phases run so far, in order.
func (s *ScriptedExecutor) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
