// Package repair implements the selective repair engine for curriculum
// plans: per-plan exclusive repair runs, dependency-gated phase selection,
// sequential phase execution with fail-fast semantics, an append-only
// execution log per run, and an inactivity watchdog for hung executors.
//
// One Orchestrator owns the per-plan lock table. Precondition checks and
// lock acquisition happen in a single critical section, so two concurrent
// requests for the same plan can never both be accepted. Phases inside one
// run execute strictly in pipeline order on a dedicated goroutine; distinct
// plans repair concurrently.
package repair
