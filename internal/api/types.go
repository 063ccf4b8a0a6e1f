package api

import "time"

// PhaseStatus is the wire form of one phase verdict.
type PhaseStatus struct {
	PhaseID string `json:"phase_id"`
	Label   string `json:"label"`
	State   string `json:"state"`
	Detail  string `json:"detail"`
}

// Diagnostics is the ordered per-phase completeness report for one plan.
type Diagnostics struct {
	PlanID string        `json:"plan_id"`
	Phases []PhaseStatus `json:"phases"`
}

// PlanSummary is the list/detail view of a curriculum plan.
type PlanSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Modules        int       `json:"modules"`
	Lessons        int       `json:"lessons"`
	MissingLessons int       `json:"missing_lessons"`
	MissingScripts int       `json:"missing_scripts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RunView is the wire form of a repair run, live or archived.
type RunView struct {
	ID           string     `json:"id"`
	PlanID       string     `json:"plan_id"`
	Phases       []string   `json:"phases"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// LogRecord is one execution log line as exposed to callers.
type LogRecord struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// LogPage is an incremental slice of a run's execution log.
type LogPage struct {
	Records []LogRecord `json:"records"`
	// Next is the sequence cursor to pass on the following fetch.
	Next uint64 `json:"next"`
	// Done reports that the run is terminal and the log fully delivered.
	Done bool `json:"done"`
}

// EngineStatus summarizes daemon runtime state.
type EngineStatus struct {
	Running      bool     `json:"running"`
	PlanCount    int      `json:"plan_count"`
	ActiveRuns   []string `json:"active_runs"`
	DatabasePath string   `json:"database_path"`
	LockPath     string   `json:"lock_path"`
	PID          int      `json:"pid"`
}
