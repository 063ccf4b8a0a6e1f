package repair

import (
	"context"
	"sync"
	"time"

	"lectern/internal/plan"
)

// RunStatus is the lifecycle state of a repair run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Run is one orchestrated, locked execution of a chosen subset of phases.
// It is owned by the Orchestrator for its lifetime; callers observe it
// through the accessors and the execution log.
type Run struct {
	ID     string
	PlanID string
	// Phases holds the requested phase identifiers in pipeline order.
	Phases []string

	log    *Log
	cancel context.CancelFunc

	mu           sync.Mutex
	status       RunStatus
	errorMessage string
	createdAt    time.Time
	startedAt    *time.Time
	finishedAt   *time.Time
	timedOut     bool
	cancelAsked  bool
}

func newRun(id, planID string, phases []string, cancel context.CancelFunc) *Run {
	return &Run{
		ID:        id,
		PlanID:    planID,
		Phases:    phases,
		log:       NewLog(),
		cancel:    cancel,
		status:    StatusPending,
		createdAt: time.Now().UTC(),
	}
}

// Status returns the current lifecycle state.
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// ErrorMessage returns the terminal failure detail, empty otherwise.
func (r *Run) ErrorMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errorMessage
}

// Log exposes the run's append-only execution log.
func (r *Run) Log() *Log {
	return r.log
}

// Wait blocks until the run reaches a terminal state or the context ends,
// returning the status observed last.
func (r *Run) Wait(ctx context.Context) RunStatus {
	// The log closes exactly when the run terminates, so draining it is a
	// completion signal that needs no extra synchronization primitive.
	for range r.log.Subscribe(ctx) {
	}
	return r.Status()
}

func (r *Run) markRunning() {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusPending {
		r.status = StatusRunning
		r.startedAt = &now
	}
}

func (r *Run) markTerminal(status RunStatus, message string) {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = status
	r.errorMessage = message
	r.finishedAt = &now
}

func (r *Run) requestCancel() {
	r.mu.Lock()
	r.cancelAsked = true
	r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Run) cancelRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelAsked
}

func (r *Run) markTimedOut() {
	r.mu.Lock()
	r.timedOut = true
	r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Run) wasTimedOut() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timedOut
}

// Record converts the run to its archived form.
func (r *Run) Record() plan.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return plan.RunRecord{
		ID:           r.ID,
		PlanID:       r.PlanID,
		Phases:       append([]string(nil), r.Phases...),
		Status:       string(r.status),
		ErrorMessage: r.errorMessage,
		Log:          r.log.Entries(),
		CreatedAt:    r.createdAt,
		StartedAt:    r.startedAt,
		FinishedAt:   r.finishedAt,
	}
}
