package phase

import "lectern/internal/plan"

// Evaluate computes the status of every registered phase against the given
// plan snapshot, in pipeline order. The result is stable and total: every
// known phase appears exactly once even when its preconditions are unmet.
// Evaluation is deterministic and side-effect free.
func Evaluate(p *plan.Plan) []Status {
	statuses := make([]Status, 0, len(registry))
	for _, def := range registry {
		statuses = append(statuses, def.Evaluate(p))
	}
	return statuses
}

// StatusFor returns the evaluated status of a single phase.
func StatusFor(p *plan.Plan, id string) (Status, bool) {
	def, ok := Lookup(id)
	if !ok {
		return Status{}, false
	}
	return def.Evaluate(p), true
}
