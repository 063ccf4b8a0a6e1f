package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lectern/internal/config"
	"lectern/internal/engine"
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/repair"
	"lectern/internal/testsupport"
)

type harness struct {
	cfg   *config.Config
	store *plan.Store
	exec  *testsupport.ScriptedExecutor
	eng   *engine.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	exec := testsupport.NewScriptedExecutor()

	orch, err := repair.NewOrchestrator(repair.Options{
		Plans:        store,
		Executor:     exec,
		Archiver:     store,
		ArchiveLimit: cfg.Repair.ArchivedRunLimit,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	eng, err := engine.New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return &harness{cfg: cfg, store: store, exec: exec, eng: eng}
}

func waitTerminal(t *testing.T, h *harness, runID string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		view, err := h.eng.GetRun(context.Background(), runID)
		if err == nil {
			switch view.Status {
			case "succeeded", "failed", "cancelled":
				return view.Status
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not terminate", runID)
	return ""
}

func TestEngineStartStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := h.eng.Status(ctx)
	if !status.Running {
		t.Fatal("engine should report running")
	}
	if status.PID <= 0 {
		t.Fatalf("pid: got %d", status.PID)
	}
	h.eng.Stop()
	if h.eng.Status(ctx).Running {
		t.Fatal("engine should report stopped")
	}
}

func TestEnginePlanLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.eng.CreatePlan(ctx, "Kubernetes Fundamentals")
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if created.ID == "" || created.Title != "Kubernetes Fundamentals" {
		t.Fatalf("created plan: %+v", created)
	}
	if _, err := h.eng.CreatePlan(ctx, "   "); err == nil {
		t.Fatal("blank title must be rejected")
	}

	got, err := h.eng.GetPlan(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Modules != 0 || got.Lessons != 0 {
		t.Fatalf("fresh plan counts: %+v", got)
	}

	imported, err := h.eng.ImportPlan(ctx, testsupport.CompletePlan(""))
	if err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}
	if imported.ID == "" {
		t.Fatal("import must assign an identifier")
	}
	if imported.Modules != 2 || imported.Lessons != 3 {
		t.Fatalf("imported counts: %+v", imported)
	}

	plans, err := h.eng.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
}

func TestEngineDiagnostics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testsupport.SeedPlan(t, h.store, testsupport.CompletePlan("plan-d"))

	diag, err := h.eng.GetDiagnostics(ctx, "plan-d")
	if err != nil {
		t.Fatalf("GetDiagnostics: %v", err)
	}
	if diag.PlanID != "plan-d" || len(diag.Phases) != 4 {
		t.Fatalf("diagnostics: %+v", diag)
	}
	if diag.Phases[1].PhaseID != phase.MasterPlan || diag.Phases[1].State != "complete" {
		t.Fatalf("master plan status: %+v", diag.Phases[1])
	}

	if _, err := h.eng.GetDiagnostics(ctx, "missing"); !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("missing plan: got %v", err)
	}
}

func TestEngineRepairFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testsupport.SeedPlan(t, h.store, testsupport.CompletePlan("plan-r"))

	view, err := h.eng.RequestRepair(ctx, "plan-r", []string{phase.Enrichment, phase.MasterPlan})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	if len(view.Phases) != 2 || view.Phases[0] != phase.MasterPlan {
		t.Fatalf("phases not ordered: %v", view.Phases)
	}

	if status := waitTerminal(t, h, view.ID); status != "succeeded" {
		t.Fatalf("status: got %s", status)
	}

	// Repairing an already complete plan is a no-op and still succeeds.
	again, err := h.eng.RequestRepair(ctx, "plan-r", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	waitTerminal(t, h, again.ID)
}

func TestEngineFetchLogsLiveAndArchived(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testsupport.SeedPlan(t, h.store, testsupport.CompletePlan("plan-l"))
	h.exec.Script(phase.ContextIndexing, func(ctx context.Context, emit func(string)) error {
		emit("index refreshed")
		return nil
	})

	view, err := h.eng.RequestRepair(ctx, "plan-l", []string{phase.ContextIndexing})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	waitTerminal(t, h, view.ID)

	var since uint64
	var lines []string
	done := false
	for !done {
		p, err := h.eng.FetchLogs(ctx, view.ID, since, true)
		if err != nil {
			t.Fatalf("FetchLogs: %v", err)
		}
		for _, rec := range p.Records {
			lines = append(lines, rec.Line)
		}
		since = p.Next
		done = p.Done
	}
	if len(lines) == 0 {
		t.Fatal("expected log lines from the run")
	}
	found := false
	for _, line := range lines {
		if line == "index refreshed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("emitted line missing from log: %v", lines)
	}

	if _, err := h.eng.FetchLogs(ctx, "no-such-run", 0, false); !errors.Is(err, repair.ErrRunNotFound) {
		t.Fatalf("unknown run: got %v", err)
	}
}

func TestEngineCancelArchivedRunAcknowledged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	started := time.Now().UTC()
	rec := plan.RunRecord{
		ID:        "run-archived",
		PlanID:    "plan-a",
		Phases:    []string{phase.MasterPlan},
		Status:    "succeeded",
		CreatedAt: started,
	}
	if err := h.store.ArchiveRun(ctx, rec, 10); err != nil {
		t.Fatalf("ArchiveRun: %v", err)
	}

	if err := h.eng.CancelRepair(ctx, "run-archived"); err != nil {
		t.Fatalf("cancel archived run: %v", err)
	}
	if err := h.eng.CancelRepair(ctx, "run-unknown"); !errors.Is(err, repair.ErrRunNotFound) {
		t.Fatalf("cancel unknown run: got %v", err)
	}
}
