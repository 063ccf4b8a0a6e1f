package testsupport

import (
	"context"
	"testing"

	"lectern/internal/config"
	"lectern/internal/plan"
)

// MustOpenStore opens a plan.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *plan.Store {
	t.Helper()

	store, err := plan.Open(cfg)
	if err != nil {
		t.Fatalf("plan.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedPlan saves the provided plan and returns it.
func SeedPlan(t testing.TB, store *plan.Store, p *plan.Plan) *plan.Plan {
	t.Helper()

	if err := store.Save(context.Background(), p); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return p
}

// CompletePlan builds a plan where every module has lessons and every lesson
// carries a voiceover script.
func CompletePlan(id string) *plan.Plan {
	return &plan.Plan{
		ID:    id,
		Title: "Intro to Distributed Systems",
		Modules: []plan.Module{
			{
				ID:    "mod-1",
				Title: "Foundations",
				Lessons: []plan.Lesson{
					{ID: "les-1", Title: "Clocks", VoiceoverScript: "Welcome to clocks."},
					{ID: "les-2", Title: "Consensus", VoiceoverScript: "Welcome to consensus."},
				},
			},
			{
				ID:    "mod-2",
				Title: "Replication",
				Lessons: []plan.Lesson{
					{ID: "les-3", Title: "Primary copy", VoiceoverScript: "Welcome to replication."},
				},
			},
		},
	}
}
