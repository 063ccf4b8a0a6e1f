package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lectern/internal/api"
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/repair"
	"lectern/internal/testsupport"
)

func newTestAPI(t *testing.T) (*httptest.Server, *Engine) {
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
	eng, err := New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	srv, err := newAPIServer(cfg, eng, nil)
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts, eng
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestAPIStatusAndPlans(t *testing.T) {
	ts, _ := newTestAPI(t)

	var status api.EngineStatus
	if code := getJSON(t, ts.URL+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("status code: %d", code)
	}

	var created api.PlanSummary
	if code := postJSON(t, ts.URL+"/api/plans", `{"title": "Linux Internals"}`, &created); code != http.StatusCreated {
		t.Fatalf("create code: %d", code)
	}
	if created.Title != "Linux Internals" {
		t.Fatalf("created: %+v", created)
	}

	var plans []api.PlanSummary
	if code := getJSON(t, ts.URL+"/api/plans", &plans); code != http.StatusOK {
		t.Fatalf("list code: %d", code)
	}
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}

	if code := getJSON(t, ts.URL+"/api/plans/missing", nil); code != http.StatusNotFound {
		t.Fatalf("missing plan code: %d", code)
	}
}

func TestAPIDiagnosticsAndRepair(t *testing.T) {
	ts, eng := newTestAPI(t)

	if _, err := eng.ImportPlan(context.Background(), testsupport.CompletePlan("plan-api")); err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}

	var diag api.Diagnostics
	if code := getJSON(t, ts.URL+"/api/plans/plan-api/diagnostics", &diag); code != http.StatusOK {
		t.Fatalf("diagnostics code: %d", code)
	}
	if len(diag.Phases) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(diag.Phases))
	}

	var run api.RunView
	if code := postJSON(t, ts.URL+"/api/plans/plan-api/repair", `{"phases": ["master_plan"]}`, &run); code != http.StatusAccepted {
		t.Fatalf("repair code: %d", code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var view api.RunView
		if code := getJSON(t, ts.URL+"/api/runs/"+run.ID, &view); code != http.StatusOK {
			t.Fatalf("run code: %d", code)
		}
		if view.Status == "succeeded" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run stuck in %s", view.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	var page api.LogPage
	if code := getJSON(t, ts.URL+"/api/runs/"+run.ID+"/logs?since=0", &page); code != http.StatusOK {
		t.Fatalf("logs code: %d", code)
	}
	if len(page.Records) == 0 {
		t.Fatal("expected log records")
	}

	// Unknown phases are a client error, not a conflict.
	if code := postJSON(t, ts.URL+"/api/plans/plan-api/repair", `{"phases": ["render_video"]}`, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown phase code: %d", code)
	}
	if code := postJSON(t, ts.URL+"/api/plans/plan-api/repair", `{"phases": []}`, nil); code != http.StatusBadRequest {
		t.Fatalf("empty phases code: %d", code)
	}
}

func TestAPIRepairDependencyConflict(t *testing.T) {
	ts, eng := newTestAPI(t)

	if _, err := eng.ImportPlan(context.Background(), &plan.Plan{ID: "plan-empty", Title: "Empty"}); err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}

	body := `{"phases": ["` + phase.LessonGeneration + `"]}`
	if code := postJSON(t, ts.URL+"/api/plans/plan-empty/repair", body, nil); code != http.StatusConflict {
		t.Fatalf("dependency conflict code: %d", code)
	}
}
