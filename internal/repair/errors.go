package repair

import "errors"

var (
	// ErrUnknownPhase rejects requests naming a phase outside the registry.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrDependencyUnmet rejects requests whose phase dependencies are not complete.
	ErrDependencyUnmet = errors.New("phase dependency unmet")
	// ErrLockHeld rejects a repair while another run for the same plan is live.
	ErrLockHeld = errors.New("repair already in progress for plan")
	// ErrRunNotFound is returned when no live run matches the identifier.
	ErrRunNotFound = errors.New("repair run not found")
	// ErrNoPhases rejects requests with an empty phase selection.
	ErrNoPhases = errors.New("at least one phase required")
)
