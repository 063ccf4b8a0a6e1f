package api

import (
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/repair"
)

// DiagnosticsFrom converts evaluated phase statuses to their wire form.
func DiagnosticsFrom(planID string, statuses []phase.Status) Diagnostics {
	phases := make([]PhaseStatus, 0, len(statuses))
	for _, status := range statuses {
		label := status.PhaseID
		if def, ok := phase.Lookup(status.PhaseID); ok {
			label = def.Label
		}
		phases = append(phases, PhaseStatus{
			PhaseID: status.PhaseID,
			Label:   label,
			State:   string(status.State),
			Detail:  status.Detail,
		})
	}
	return Diagnostics{PlanID: planID, Phases: phases}
}

// PlanSummaryFrom derives the summary view of a plan.
func PlanSummaryFrom(p *plan.Plan) PlanSummary {
	if p == nil {
		return PlanSummary{}
	}
	return PlanSummary{
		ID:             p.ID,
		Title:          p.Title,
		Modules:        p.ModuleCount(),
		Lessons:        p.LessonCount(),
		MissingLessons: p.ModulesMissingLessons(),
		MissingScripts: p.LessonsMissingScripts(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// RunViewFrom converts a live repair run to its wire form.
func RunViewFrom(run *repair.Run) RunView {
	if run == nil {
		return RunView{}
	}
	rec := run.Record()
	return RunViewFromRecord(&rec)
}

// RunViewFromRecord converts an archived run record to its wire form.
func RunViewFromRecord(rec *plan.RunRecord) RunView {
	if rec == nil {
		return RunView{}
	}
	return RunView{
		ID:           rec.ID,
		PlanID:       rec.PlanID,
		Phases:       append([]string(nil), rec.Phases...),
		Status:       rec.Status,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
	}
}

// LogRecordFrom converts one execution log record.
func LogRecordFrom(rec repair.Record) LogRecord {
	return LogRecord{Seq: rec.Seq, Time: rec.Time, Line: rec.Line}
}

// LogRecordsFromEntries converts archived log entries.
func LogRecordsFromEntries(entries []plan.RunLogEntry) []LogRecord {
	records := make([]LogRecord, len(entries))
	for i, entry := range entries {
		records[i] = LogRecord{Seq: entry.Seq, Time: entry.Time, Line: entry.Line}
	}
	return records
}
