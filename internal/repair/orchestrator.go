package repair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lectern/internal/executor"
	"lectern/internal/logging"
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/services"
)

// PlanSource provides read access to plan snapshots for precondition checks.
type PlanSource interface {
	Load(ctx context.Context, id string) (*plan.Plan, error)
}

// RunArchiver persists terminal runs for later inspection.
type RunArchiver interface {
	ArchiveRun(ctx context.Context, rec plan.RunRecord, limit int) error
}

// Options configures an Orchestrator.
type Options struct {
	Logger            *slog.Logger
	Plans             PlanSource
	Executor          executor.Executor
	Archiver          RunArchiver
	InactivityTimeout time.Duration
	ArchiveLimit      int
}

// Orchestrator owns the per-plan repair lock table and drives repair runs.
type Orchestrator struct {
	logger       *slog.Logger
	plans        PlanSource
	exec         executor.Executor
	archiver     RunArchiver
	inactivity   time.Duration
	archiveLimit int

	mu     sync.Mutex
	active map[string]*Run // plan id -> non-terminal run
	runs   map[string]*Run // run id -> run, live and recently finished
	done   []string        // terminal run ids, oldest first, for pruning
}

// NewOrchestrator constructs the repair engine.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Plans == nil {
		return nil, errors.New("orchestrator requires a plan source")
	}
	if opts.Executor == nil {
		return nil, errors.New("orchestrator requires a phase executor")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		logger:       logging.NewComponentLogger(logger, "repair"),
		plans:        opts.Plans,
		exec:         opts.Executor,
		archiver:     opts.Archiver,
		inactivity:   opts.InactivityTimeout,
		archiveLimit: opts.ArchiveLimit,
		active:       make(map[string]*Run),
		runs:         make(map[string]*Run),
	}, nil
}

// RequestRepair validates a repair request and, when accepted, starts the
// run on its own goroutine. Preconditions are checked in order: unknown
// phases, plan existence, unmet dependencies, and finally the per-plan lock.
// The dependency check and lock acquisition share one critical section, so
// two racing requests for the same plan can never both pass.
func (o *Orchestrator) RequestRepair(ctx context.Context, planID string, phaseIDs []string) (*Run, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return nil, errors.New("plan id required")
	}
	if len(phaseIDs) == 0 {
		return nil, ErrNoPhases
	}
	for _, id := range phaseIDs {
		if !phase.Known(id) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, id)
		}
	}

	snapshot, err := o.plans.Load(ctx, planID)
	if err != nil {
		return nil, err
	}

	ordered := phase.SortPipelineOrder(phaseIDs)

	o.mu.Lock()
	if err := checkDependencies(snapshot, ordered); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if existing, ok := o.active[planID]; ok && !existing.Status().Terminal() {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w %s: run %s is %s", ErrLockHeld, planID, existing.ID, existing.Status())
	}

	runCtx, cancel := context.WithCancel(context.Background())
	run := newRun(uuid.NewString(), planID, ordered, cancel)
	o.active[planID] = run
	o.runs[run.ID] = run
	o.mu.Unlock()

	o.logger.Info("repair accepted",
		logging.String(logging.FieldPlanID, planID),
		logging.String(logging.FieldRunID, run.ID),
		logging.String("phases", strings.Join(ordered, ",")),
	)

	go o.execute(runCtx, run)
	return run, nil
}

// CancelRepair requests a best-effort abort of a live run. Cancelling a run
// that already reached a terminal state is a no-op acknowledgment.
func (o *Orchestrator) CancelRepair(runID string) error {
	o.mu.Lock()
	run, ok := o.runs[runID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if run.Status().Terminal() {
		return nil
	}
	run.log.Append("cancellation requested")
	run.requestCancel()
	return nil
}

// Run returns a live or recently finished run by identifier.
func (o *Orchestrator) Run(runID string) (*Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	run, ok := o.runs[runID]
	return run, ok
}

// ActiveRun returns the non-terminal run for a plan, if any.
func (o *Orchestrator) ActiveRun(planID string) (*Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	run, ok := o.active[planID]
	return run, ok
}

func checkDependencies(snapshot *plan.Plan, ordered []string) error {
	states := make(map[string]phase.State, 4)
	for _, status := range phase.Evaluate(snapshot) {
		states[status.PhaseID] = status.State
	}
	for _, id := range ordered {
		def, _ := phase.Lookup(id)
		for _, dep := range def.DependsOn {
			if states[dep] != phase.StateComplete {
				return fmt.Errorf("%w: %s requires %s to be complete (currently %s)", ErrDependencyUnmet, id, dep, states[dep])
			}
		}
	}
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	defer o.release(run)

	runCtx := services.WithRunID(services.WithPlanID(ctx, run.PlanID), run.ID)
	logger := logging.WithContext(runCtx, o.logger)

	run.markRunning()

	watchdogStop := make(chan struct{})
	defer close(watchdogStop)
	go o.watch(run, watchdogStop)

	for _, phaseID := range run.Phases {
		if err := ctx.Err(); err != nil {
			o.finishInterrupted(run, logger, "")
			return
		}

		def, _ := phase.Lookup(phaseID)
		run.log.Append("starting " + def.Label)
		logger.Info("phase started", logging.String(logging.FieldPhase, phaseID))

		phaseCtx := services.WithPhase(runCtx, phaseID)
		err := o.exec.Execute(phaseCtx, run.PlanID, phaseID, run.log.Append)
		if err != nil {
			run.log.Append(fmt.Sprintf("%s failed: %v", def.Label, err))
			o.finishInterrupted(run, logger, err.Error())
			return
		}
		logger.Info("phase completed", logging.String(logging.FieldPhase, phaseID))
	}

	// A cancel or timeout that landed after the final executor returned
	// still wins over success.
	if ctx.Err() != nil {
		o.finishInterrupted(run, logger, "")
		return
	}

	run.markTerminal(StatusSucceeded, "")
	logger.Info("repair succeeded", logging.Int("phase_count", len(run.Phases)))
}

// finishInterrupted resolves the terminal state for a run that did not
// complete all phases: timeout beats cancellation beats plain failure.
func (o *Orchestrator) finishInterrupted(run *Run, logger *slog.Logger, executorError string) {
	switch {
	case run.wasTimedOut():
		detail := fmt.Sprintf("no executor activity for %s", o.inactivity)
		run.log.Append("repair timed out: " + detail)
		run.markTerminal(StatusFailed, services.Wrap(services.ErrTimeout, "", "repair", detail, nil).Error())
		logger.Error("repair timed out", logging.Duration("inactivity_timeout", o.inactivity))
	case run.cancelRequested():
		run.markTerminal(StatusCancelled, executorError)
		logger.Warn("repair cancelled", logging.String("error_message", executorError))
	default:
		run.markTerminal(StatusFailed, executorError)
		logger.Error("repair failed", logging.String("error_message", executorError))
	}
}

// release runs on every exit path: it finalizes the log, frees the per-plan
// lock, and archives the terminal run.
func (o *Orchestrator) release(run *Run) {
	if !run.Status().Terminal() {
		run.markTerminal(StatusFailed, "internal error: repair exited without terminal state")
	}
	run.log.Close()

	o.mu.Lock()
	if o.active[run.PlanID] == run {
		delete(o.active, run.PlanID)
	}
	o.done = append(o.done, run.ID)
	for o.archiveLimit > 0 && len(o.done) > o.archiveLimit {
		delete(o.runs, o.done[0])
		o.done = o.done[1:]
	}
	o.mu.Unlock()

	if o.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.archiver.ArchiveRun(ctx, run.Record(), o.archiveLimit); err != nil {
			o.logger.Warn("failed to archive repair run",
				logging.String(logging.FieldRunID, run.ID),
				logging.Error(err),
			)
		}
	}
}

// watch fails a run whose executor produces no log output for the configured
// inactivity window. A zero timeout disables the watchdog.
func (o *Orchestrator) watch(run *Run, stop <-chan struct{}) {
	if o.inactivity <= 0 {
		return
	}
	interval := o.inactivity / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if time.Since(run.log.LastActivity()) >= o.inactivity {
				run.markTimedOut()
				return
			}
		}
	}
}
