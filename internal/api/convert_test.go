package api

import (
	"testing"
	"time"

	"lectern/internal/phase"
	"lectern/internal/plan"
)

func TestDiagnosticsFromLabels(t *testing.T) {
	statuses := []phase.Status{
		{PhaseID: phase.MasterPlan, State: phase.StateComplete, Detail: "3 modules"},
		{PhaseID: phase.Enrichment, State: phase.StateWarning, Detail: "2 lessons missing voiceover scripts"},
	}

	diag := DiagnosticsFrom("plan-1", statuses)
	if diag.PlanID != "plan-1" || len(diag.Phases) != 2 {
		t.Fatalf("unexpected diagnostics: %+v", diag)
	}
	if diag.Phases[0].Label != "Master Plan" {
		t.Fatalf("label: got %q", diag.Phases[0].Label)
	}
	if diag.Phases[1].State != "warning" || diag.Phases[1].Detail != "2 lessons missing voiceover scripts" {
		t.Fatalf("enrichment status: %+v", diag.Phases[1])
	}
}

func TestPlanSummaryFromCounts(t *testing.T) {
	p := &plan.Plan{
		ID:    "plan-2",
		Title: "SRE Onboarding",
		Modules: []plan.Module{
			{ID: "m1", Lessons: []plan.Lesson{
				{ID: "l1", VoiceoverScript: "done"},
				{ID: "l2"},
			}},
			{ID: "m2"},
		},
	}

	summary := PlanSummaryFrom(p)
	if summary.Modules != 2 || summary.Lessons != 2 {
		t.Fatalf("counts: %+v", summary)
	}
	if summary.MissingLessons != 1 || summary.MissingScripts != 1 {
		t.Fatalf("missing counts: %+v", summary)
	}

	if got := PlanSummaryFrom(nil); got.ID != "" {
		t.Fatalf("nil plan should produce zero summary: %+v", got)
	}
}

func TestRunViewFromRecord(t *testing.T) {
	started := time.Now().UTC()
	rec := &plan.RunRecord{
		ID:           "run-1",
		PlanID:       "plan-3",
		Phases:       []string{phase.MasterPlan},
		Status:       "failed",
		ErrorMessage: "generation service unavailable",
		CreatedAt:    started,
		StartedAt:    &started,
	}

	view := RunViewFromRecord(rec)
	if view.ID != "run-1" || view.Status != "failed" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.ErrorMessage != "generation service unavailable" {
		t.Fatalf("error message: %q", view.ErrorMessage)
	}
	if view.FinishedAt != nil {
		t.Fatal("finished time should stay nil")
	}

	// The phase slice is copied, not aliased.
	rec.Phases[0] = "mutated"
	if view.Phases[0] != phase.MasterPlan {
		t.Fatalf("phases aliased: %v", view.Phases)
	}
}
