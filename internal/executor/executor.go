// Package executor declares the contract between the repair engine and the
// long-running phase implementations. The engine treats executors as opaque:
// it passes a plan and phase identifier, collects emitted log lines in
// arrival order, and observes only the returned error.
package executor

import "context"

// Executor performs the generation work for one pipeline phase. Execute
// blocks until the phase finishes, emitting progress lines as it goes.
// Implementations should honour context cancellation as a best-effort abort;
// the engine tolerates executors that run to natural completion anyway.
type Executor interface {
	Execute(ctx context.Context, planID, phaseID string, emit func(line string)) error
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, planID, phaseID string, emit func(line string)) error

func (f Func) Execute(ctx context.Context, planID, phaseID string, emit func(line string)) error {
	return f(ctx, planID, phaseID, emit)
}
