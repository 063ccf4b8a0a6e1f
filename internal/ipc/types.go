package ipc

import "lectern/internal/api"

// StatusRequest fetches engine status.
type StatusRequest struct{}

// StatusResponse reports engine runtime information.
type StatusResponse struct {
	Status api.EngineStatus `json:"status"`
}

// PlanListRequest lists stored plans.
type PlanListRequest struct{}

// PlanListResponse contains plan summaries.
type PlanListResponse struct {
	Plans []api.PlanSummary `json:"plans"`
}

// PlanShowRequest fetches a single plan summary.
type PlanShowRequest struct {
	PlanID string `json:"plan_id"`
}

// PlanShowResponse contains one plan summary.
type PlanShowResponse struct {
	Plan api.PlanSummary `json:"plan"`
}

// PlanCreateRequest registers a new empty plan.
type PlanCreateRequest struct {
	Title string `json:"title"`
}

// PlanCreateResponse returns the created plan.
type PlanCreateResponse struct {
	Plan api.PlanSummary `json:"plan"`
}

// PlanImportRequest stores a fully-formed plan document (JSON-encoded).
type PlanImportRequest struct {
	Document []byte `json:"document"`
}

// PlanImportResponse returns the imported plan.
type PlanImportResponse struct {
	Plan api.PlanSummary `json:"plan"`
}

// DiagnoseRequest evaluates phase completeness for a plan.
type DiagnoseRequest struct {
	PlanID string `json:"plan_id"`
}

// DiagnoseResponse contains the ordered phase statuses.
type DiagnoseResponse struct {
	Diagnostics api.Diagnostics `json:"diagnostics"`
}

// RepairRequest starts a repair run for the selected phases.
type RepairRequest struct {
	PlanID string   `json:"plan_id"`
	Phases []string `json:"phases"`
}

// RepairResponse returns the accepted run.
type RepairResponse struct {
	Run api.RunView `json:"run"`
}

// RunShowRequest fetches a live or archived run.
type RunShowRequest struct {
	RunID string `json:"run_id"`
}

// RunShowResponse contains one run view.
type RunShowResponse struct {
	Run api.RunView `json:"run"`
}

// RunListRequest lists archived runs for a plan.
type RunListRequest struct {
	PlanID string `json:"plan_id"`
}

// RunListResponse contains archived run views.
type RunListResponse struct {
	Runs []api.RunView `json:"runs"`
}

// CancelRequest asks for a best-effort abort of a run.
type CancelRequest struct {
	RunID string `json:"run_id"`
}

// CancelResponse acknowledges the cancellation request.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// LogsRequest fetches execution log records past a sequence cursor. Wait
// blocks the call until new records arrive or the run terminates.
type LogsRequest struct {
	RunID string `json:"run_id"`
	Since uint64 `json:"since"`
	Wait  bool   `json:"wait"`
}

// LogsResponse contains an incremental log page.
type LogsResponse struct {
	Page api.LogPage `json:"page"`
}
