// Package phase defines the curriculum generation pipeline phases and the
// pure evaluator that derives per-phase completeness from a plan snapshot.
//
// The registry order is fixed: context indexing, master plan, lesson
// generation, enrichment. Every diagnostics request re-evaluates all four
// phases from scratch; results are never cached across plan mutations.
package phase
