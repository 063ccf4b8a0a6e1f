package phase

import (
	"fmt"
	"sort"

	"lectern/internal/plan"
)

// Phase identifiers, in pipeline order.
const (
	ContextIndexing  = "context_indexing"
	MasterPlan       = "master_plan"
	LessonGeneration = "lesson_generation"
	Enrichment       = "enrichment"
)

// Definition is the static, process-wide description of one pipeline phase.
// DependsOn lists phases that must evaluate Complete before this phase may be
// repaired; execution order is always the registry order regardless of these
// sets.
type Definition struct {
	ID        string
	Label     string
	DependsOn []string
	Evaluate  func(*plan.Plan) Status
}

var registry = []Definition{
	{
		ID:    ContextIndexing,
		Label: "Context Indexing",
		// The corpus index is shared across plans; this engine has no
		// per-plan incompleteness signal for it.
		Evaluate: func(*plan.Plan) Status {
			return Status{PhaseID: ContextIndexing, State: StateReady, Detail: "shared corpus index"}
		},
	},
	{
		ID:    MasterPlan,
		Label: "Master Plan",
		Evaluate: func(p *plan.Plan) Status {
			count := p.ModuleCount()
			if count == 0 {
				return Status{PhaseID: MasterPlan, State: StateError, Detail: "0 modules"}
			}
			return Status{PhaseID: MasterPlan, State: StateComplete, Detail: fmt.Sprintf("%d modules", count)}
		},
	},
	{
		ID:        LessonGeneration,
		Label:     "Lesson Generation",
		DependsOn: []string{MasterPlan},
		Evaluate: func(p *plan.Plan) Status {
			missing := p.ModulesMissingLessons()
			if missing == 0 {
				return Status{PhaseID: LessonGeneration, State: StateComplete, Detail: "0 modules missing lessons"}
			}
			return Status{PhaseID: LessonGeneration, State: StateWarning, Detail: fmt.Sprintf("%d modules missing lessons", missing)}
		},
	},
	{
		ID:        Enrichment,
		Label:     "Enrichment",
		DependsOn: []string{MasterPlan},
		Evaluate: func(p *plan.Plan) Status {
			missing := p.LessonsMissingScripts()
			if missing == 0 {
				return Status{PhaseID: Enrichment, State: StateComplete, Detail: "0 lessons missing voiceover scripts"}
			}
			return Status{PhaseID: Enrichment, State: StateWarning, Detail: fmt.Sprintf("%d lessons missing voiceover scripts", missing)}
		},
	},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, def := range registry {
		idx[def.ID] = i
	}
	return idx
}()

// Definitions returns the registered phases in pipeline order.
func Definitions() []Definition {
	cp := make([]Definition, len(registry))
	copy(cp, registry)
	return cp
}

// Lookup returns the definition for an identifier.
func Lookup(id string) (Definition, bool) {
	i, ok := registryIndex[id]
	if !ok {
		return Definition{}, false
	}
	return registry[i], true
}

// Known reports whether the identifier names a registered phase.
func Known(id string) bool {
	_, ok := registryIndex[id]
	return ok
}

// SortPipelineOrder orders phase identifiers by registry position, dropping
// duplicates. Unknown identifiers are dropped too; validate before sorting.
func SortPipelineOrder(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	ordered := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := registryIndex[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return registryIndex[ordered[i]] < registryIndex[ordered[j]]
	})
	return ordered
}
