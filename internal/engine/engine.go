package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/repair"
)

// Engine is the daemon facade over diagnostics and selective repair.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *plan.Store
	orch   *repair.Orchestrator

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs an engine with initialized dependencies.
func New(cfg *config.Config, store *plan.Store, orch *repair.Orchestrator, logger *slog.Logger) (*Engine, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("engine requires config, store, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Engine{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "engine"),
		store:    store,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and brings up the HTTP API.
func (e *Engine) Start(ctx context.Context) error {
	if e.running.Load() {
		return errors.New("engine already running")
	}

	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lecternd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	server, err := newAPIServer(e.cfg, e, e.logger)
	if err != nil {
		_ = e.lock.Unlock()
		cancel()
		return err
	}
	e.apiServer = server
	if e.apiServer != nil {
		if err := e.apiServer.start(runCtx); err != nil {
			_ = e.lock.Unlock()
			cancel()
			return err
		}
	}

	e.running.Store(true)
	e.logger.Info("lectern engine started", logging.String("lock", e.lockPath))
	return nil
}

// Stop shuts down the API server and releases the instance lock.
func (e *Engine) Stop() {
	if !e.running.Load() {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.apiServer != nil {
		e.apiServer.stop()
		e.apiServer = nil
	}
	if err := e.lock.Unlock(); err != nil {
		e.logger.Warn("failed to release engine lock", logging.Error(err))
	}
	e.running.Store(false)
	e.logger.Info("lectern engine stopped")
}

// Close stops the engine and the underlying store.
func (e *Engine) Close() error {
	e.Stop()
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Status reports daemon runtime information.
func (e *Engine) Status(ctx context.Context) api.EngineStatus {
	status := api.EngineStatus{
		Running:      e.running.Load(),
		DatabasePath: e.store.Path(),
		LockPath:     e.lockPath,
		PID:          os.Getpid(),
	}
	if plans, err := e.store.List(ctx); err == nil {
		status.PlanCount = len(plans)
		for _, p := range plans {
			if run, ok := e.orch.ActiveRun(p.ID); ok {
				status.ActiveRuns = append(status.ActiveRuns, run.ID)
			}
		}
	}
	return status
}

// GetDiagnostics evaluates every phase against a fresh plan snapshot.
func (e *Engine) GetDiagnostics(ctx context.Context, planID string) (api.Diagnostics, error) {
	snapshot, err := e.store.Load(ctx, planID)
	if err != nil {
		return api.Diagnostics{}, err
	}
	return api.DiagnosticsFrom(planID, phase.Evaluate(snapshot)), nil
}

// RequestRepair validates and starts a repair run for the selected phases.
func (e *Engine) RequestRepair(ctx context.Context, planID string, phaseIDs []string) (api.RunView, error) {
	run, err := e.orch.RequestRepair(ctx, planID, phaseIDs)
	if err != nil {
		return api.RunView{}, err
	}
	return api.RunViewFrom(run), nil
}

// CancelRepair requests a best-effort abort. Cancelling an archived run is
// acknowledged without effect.
func (e *Engine) CancelRepair(ctx context.Context, runID string) error {
	err := e.orch.CancelRepair(runID)
	if err == nil || !errors.Is(err, repair.ErrRunNotFound) {
		return err
	}
	if _, archiveErr := e.store.GetRun(ctx, runID); archiveErr == nil {
		return nil
	}
	return err
}

// GetRun returns a live or archived repair run.
func (e *Engine) GetRun(ctx context.Context, runID string) (api.RunView, error) {
	if run, ok := e.orch.Run(runID); ok {
		return api.RunViewFrom(run), nil
	}
	rec, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return api.RunView{}, err
	}
	return api.RunViewFromRecord(rec), nil
}

// ListRuns returns archived repair history for a plan, newest first.
func (e *Engine) ListRuns(ctx context.Context, planID string) ([]api.RunView, error) {
	records, err := e.store.ListRuns(ctx, planID)
	if err != nil {
		return nil, err
	}
	views := make([]api.RunView, 0, len(records))
	for _, rec := range records {
		views = append(views, api.RunViewFromRecord(rec))
	}
	return views, nil
}

// ListPlans returns summaries of every stored plan.
func (e *Engine) ListPlans(ctx context.Context) ([]api.PlanSummary, error) {
	plans, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]api.PlanSummary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, api.PlanSummaryFrom(p))
	}
	return summaries, nil
}

// GetPlan returns the summary view of one plan.
func (e *Engine) GetPlan(ctx context.Context, planID string) (api.PlanSummary, error) {
	p, err := e.store.Load(ctx, planID)
	if err != nil {
		return api.PlanSummary{}, err
	}
	return api.PlanSummaryFrom(p), nil
}

// CreatePlan registers a new, empty plan. Diagnostics on a fresh plan show
// the master plan phase in error until synthesis runs.
func (e *Engine) CreatePlan(ctx context.Context, title string) (api.PlanSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return api.PlanSummary{}, errors.New("plan title required")
	}
	p := &plan.Plan{ID: uuid.NewString(), Title: title}
	if err := e.store.Save(ctx, p); err != nil {
		return api.PlanSummary{}, err
	}
	return api.PlanSummaryFrom(p), nil
}

// ImportPlan stores a fully-formed plan document, assigning an identifier
// when missing.
func (e *Engine) ImportPlan(ctx context.Context, p *plan.Plan) (api.PlanSummary, error) {
	if p == nil {
		return api.PlanSummary{}, errors.New("plan required")
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	if err := e.store.Save(ctx, p); err != nil {
		return api.PlanSummary{}, err
	}
	return api.PlanSummaryFrom(p), nil
}
