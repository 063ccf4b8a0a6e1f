package phase

// State is the completeness verdict for one phase against one plan snapshot.
type State string

const (
	// StateReady marks a phase that can run but exposes no per-plan
	// completeness signal of its own.
	StateReady State = "ready"
	// StateComplete marks a phase whose output is fully present.
	StateComplete State = "complete"
	// StateWarning marks a phase with partial output; the plan remains usable.
	StateWarning State = "warning"
	// StateError marks a hard precondition failure that blocks downstream phases.
	StateError State = "error"
)

// Status is the computed verdict for one phase. It is ephemeral: recomputed
// on every diagnostics request and never persisted.
type Status struct {
	PhaseID string `json:"phase_id"`
	State   State  `json:"state"`
	Detail  string `json:"detail"`
}
