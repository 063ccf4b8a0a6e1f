package repair_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/repair"
	"lectern/internal/testsupport"
)

type fixture struct {
	store *plan.Store
	exec  *testsupport.ScriptedExecutor
	orch  *repair.Orchestrator
}

func newFixture(t *testing.T, opts repair.Options) *fixture {
	t.Helper()

	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	exec := testsupport.NewScriptedExecutor()

	opts.Plans = store
	opts.Executor = exec
	opts.Archiver = store
	if opts.ArchiveLimit == 0 {
		opts.ArchiveLimit = 10
	}

	orch, err := repair.NewOrchestrator(opts)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return &fixture{store: store, exec: exec, orch: orch}
}

func (f *fixture) seedComplete(t *testing.T, id string) {
	t.Helper()
	testsupport.SeedPlan(t, f.store, testsupport.CompletePlan(id))
}

func waitStatus(t *testing.T, run *repair.Run) repair.RunStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status := run.Wait(ctx)
	if !status.Terminal() {
		t.Fatalf("run %s did not reach a terminal state: %s", run.ID, status)
	}
	return status
}

// waitFor polls for a condition that becomes true shortly after a run's log
// closes, such as archival, which completes on the run goroutine.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func logLines(run *repair.Run) []string {
	records := run.Log().Snapshot()
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.Line
	}
	return lines
}

func TestRepairExecutesPhasesInPipelineOrder(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-order")

	run, err := f.orch.RequestRepair(context.Background(), "plan-order", []string{
		phase.Enrichment, phase.MasterPlan, phase.LessonGeneration,
	})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	if status := waitStatus(t, run); status != repair.StatusSucceeded {
		t.Fatalf("status: got %s", status)
	}

	executed := f.exec.Executed()
	want := []string{phase.MasterPlan, phase.LessonGeneration, phase.Enrichment}
	if len(executed) != len(want) {
		t.Fatalf("executed %v, want %v", executed, want)
	}
	for i := range want {
		if executed[i] != want[i] {
			t.Fatalf("executed %v, want %v", executed, want)
		}
	}
	if run.Phases[0] != phase.MasterPlan {
		t.Fatalf("run phases not normalized: %v", run.Phases)
	}
}

func TestRepairRequestValidation(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-v")

	if _, err := f.orch.RequestRepair(context.Background(), "plan-v", nil); !errors.Is(err, repair.ErrNoPhases) {
		t.Fatalf("empty phases: got %v", err)
	}
	if _, err := f.orch.RequestRepair(context.Background(), "plan-v", []string{"render_video"}); !errors.Is(err, repair.ErrUnknownPhase) {
		t.Fatalf("unknown phase: got %v", err)
	}
	if _, err := f.orch.RequestRepair(context.Background(), "missing", []string{phase.MasterPlan}); !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("missing plan: got %v", err)
	}
}

func TestRepairDependencyGate(t *testing.T) {
	f := newFixture(t, repair.Options{})
	testsupport.SeedPlan(t, f.store, &plan.Plan{ID: "plan-dep", Title: "Empty"})

	_, err := f.orch.RequestRepair(context.Background(), "plan-dep", []string{phase.LessonGeneration})
	if !errors.Is(err, repair.ErrDependencyUnmet) {
		t.Fatalf("expected ErrDependencyUnmet, got %v", err)
	}
	if len(f.exec.Executed()) != 0 {
		t.Fatal("rejected request must not execute any phase")
	}

	// Repairing the master plan itself is always allowed; it has no
	// dependencies.
	run, err := f.orch.RequestRepair(context.Background(), "plan-dep", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("master plan repair: %v", err)
	}
	waitStatus(t, run)
}

func TestRepairMutualExclusionPerPlan(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-lock")
	f.seedComplete(t, "plan-other")

	release := make(chan struct{})
	f.exec.Script(phase.MasterPlan, func(ctx context.Context, emit func(string)) error {
		<-release
		return nil
	})

	first, err := f.orch.RequestRepair(context.Background(), "plan-lock", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	if _, err := f.orch.RequestRepair(context.Background(), "plan-lock", []string{phase.Enrichment}); !errors.Is(err, repair.ErrLockHeld) {
		t.Fatalf("second request on same plan: got %v", err)
	}

	// A different plan is not blocked by plan-lock's run.
	other, err := f.orch.RequestRepair(context.Background(), "plan-other", []string{phase.Enrichment})
	if err != nil {
		t.Fatalf("other plan request: %v", err)
	}
	waitStatus(t, other)

	close(release)
	waitStatus(t, first)
	waitFor(t, "lock release", func() bool {
		_, ok := f.orch.ActiveRun("plan-lock")
		return !ok
	})

	// The lock is released once the run terminates.
	again, err := f.orch.RequestRepair(context.Background(), "plan-lock", []string{phase.Enrichment})
	if err != nil {
		t.Fatalf("request after completion: %v", err)
	}
	waitStatus(t, again)
}

func TestRepairConcurrentRequestsAdmitOne(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-race")

	release := make(chan struct{})
	f.exec.Script(phase.MasterPlan, func(ctx context.Context, emit func(string)) error {
		<-release
		return nil
	})

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	runs := make(chan *repair.Run, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := f.orch.RequestRepair(context.Background(), "plan-race", []string{phase.MasterPlan})
			if err != nil {
				results <- err
				return
			}
			runs <- run
			results <- nil
		}()
	}
	wg.Wait()
	close(results)
	close(runs)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		if !errors.Is(err, repair.ErrLockHeld) {
			t.Fatalf("unexpected rejection: %v", err)
		}
	}
	if admitted != 1 {
		t.Fatalf("expected exactly one admitted run, got %d", admitted)
	}

	close(release)
	for run := range runs {
		waitStatus(t, run)
	}
}

func TestRepairFailFast(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-fail")

	f.exec.Script(phase.MasterPlan, func(ctx context.Context, emit func(string)) error {
		emit("outline request sent")
		return fmt.Errorf("generation service unavailable")
	})

	run, err := f.orch.RequestRepair(context.Background(), "plan-fail", []string{phase.MasterPlan, phase.Enrichment})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	if status := waitStatus(t, run); status != repair.StatusFailed {
		t.Fatalf("status: got %s", status)
	}
	if run.ErrorMessage() != "generation service unavailable" {
		t.Fatalf("error message: got %q", run.ErrorMessage())
	}

	executed := f.exec.Executed()
	if len(executed) != 1 || executed[0] != phase.MasterPlan {
		t.Fatalf("later phases must not run after a failure: %v", executed)
	}

	lines := logLines(run)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "Master Plan failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("failure not recorded in log: %v", lines)
	}
}

func TestRepairCancellation(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-cancel")

	started := make(chan struct{})
	var once sync.Once
	f.exec.Script(phase.MasterPlan, func(ctx context.Context, emit func(string)) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	})

	run, err := f.orch.RequestRepair(context.Background(), "plan-cancel", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	<-started

	if err := f.orch.CancelRepair(run.ID); err != nil {
		t.Fatalf("CancelRepair: %v", err)
	}
	if status := waitStatus(t, run); status != repair.StatusCancelled {
		t.Fatalf("status: got %s", status)
	}

	lines := logLines(run)
	found := false
	for _, line := range lines {
		if line == "cancellation requested" {
			found = true
		}
	}
	if !found {
		t.Fatalf("cancellation not recorded in log: %v", lines)
	}

	// Cancelling a terminal run is acknowledged without error.
	if err := f.orch.CancelRepair(run.ID); err != nil {
		t.Fatalf("cancel after terminal: %v", err)
	}
	if err := f.orch.CancelRepair("no-such-run"); !errors.Is(err, repair.ErrRunNotFound) {
		t.Fatalf("cancel unknown run: got %v", err)
	}
}

func TestRepairInactivityWatchdog(t *testing.T) {
	f := newFixture(t, repair.Options{InactivityTimeout: 60 * time.Millisecond})
	f.seedComplete(t, "plan-hang")

	f.exec.Script(phase.MasterPlan, func(ctx context.Context, emit func(string)) error {
		// Simulates a hung executor that only exits when cancelled.
		<-ctx.Done()
		return ctx.Err()
	})

	run, err := f.orch.RequestRepair(context.Background(), "plan-hang", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	if status := waitStatus(t, run); status != repair.StatusFailed {
		t.Fatalf("status: got %s", status)
	}
	if !strings.Contains(run.ErrorMessage(), "no executor activity") {
		t.Fatalf("error message: got %q", run.ErrorMessage())
	}
}

func TestRepairLogReplayAfterTermination(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-replay")

	f.exec.Script(phase.ContextIndexing, func(ctx context.Context, emit func(string)) error {
		emit("index refreshed")
		return nil
	})

	run, err := f.orch.RequestRepair(context.Background(), "plan-replay", []string{phase.ContextIndexing})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	waitStatus(t, run)

	records, more, err := run.Log().Fetch(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !more || len(records) == 0 {
		t.Fatalf("terminated run must replay its log: records=%d more=%v", len(records), more)
	}
	last := records[len(records)-1].Seq
	if _, more, _ := run.Log().Fetch(context.Background(), last, false); more {
		t.Fatal("drained terminal log should report end of stream")
	}
}

func TestRepairArchivesTerminalRuns(t *testing.T) {
	f := newFixture(t, repair.Options{})
	f.seedComplete(t, "plan-arch")

	run, err := f.orch.RequestRepair(context.Background(), "plan-arch", []string{phase.MasterPlan})
	if err != nil {
		t.Fatalf("RequestRepair: %v", err)
	}
	waitStatus(t, run)

	var rec *plan.RunRecord
	waitFor(t, "run archive", func() bool {
		var err error
		rec, err = f.store.GetRun(context.Background(), run.ID)
		return err == nil
	})
	if rec.Status != string(repair.StatusSucceeded) {
		t.Fatalf("archived status: got %s", rec.Status)
	}
	if len(rec.Log) == 0 {
		t.Fatal("archived run should retain its execution log")
	}
	if rec.StartedAt == nil || rec.FinishedAt == nil {
		t.Fatal("archived run should carry start and finish times")
	}
}

func TestRepairPrunesInMemoryHandles(t *testing.T) {
	f := newFixture(t, repair.Options{ArchiveLimit: 1})
	f.seedComplete(t, "plan-prune")

	first, err := f.orch.RequestRepair(context.Background(), "plan-prune", []string{phase.ContextIndexing})
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	waitStatus(t, first)
	waitFor(t, "lock release", func() bool {
		_, ok := f.orch.ActiveRun("plan-prune")
		return !ok
	})

	second, err := f.orch.RequestRepair(context.Background(), "plan-prune", []string{phase.ContextIndexing})
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	waitStatus(t, second)

	waitFor(t, "in-memory prune", func() bool {
		_, ok := f.orch.Run(first.ID)
		return !ok
	})
	if _, ok := f.orch.Run(second.ID); !ok {
		t.Fatal("most recent run should remain addressable")
	}
	// The pruned run survives in the archive.
	waitFor(t, "pruned run archive", func() bool {
		_, err := f.store.GetRun(context.Background(), first.ID)
		return err == nil
	})
}
