// Package engine wires the plan store, phase evaluator, and repair
// orchestrator into the daemon facade exposed to callers.
//
// The engine enforces single-instance execution with a file lock, serves the
// HTTP API, and owns the translation between core types and the wire DTOs.
// Diagnostics are computed fresh from a plan snapshot on every request;
// repair requests delegate to the orchestrator, which serializes runs per
// plan.
package engine
