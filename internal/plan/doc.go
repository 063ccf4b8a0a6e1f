// Package plan defines the curriculum artifact model and its SQLite-backed
// store.
//
// A Plan owns an ordered list of Modules; each Module owns an ordered list of
// Lessons with optional enrichment fields (voiceover script, quiz). The
// diagnostics engine only ever reads plans; mutation happens through the
// generation executors, which persist new versions via the Store.
//
// Absence is represented by the empty value: a module with a nil or empty
// lesson slice counts as lessonless, and a lesson whose voiceover script is
// blank counts as unenriched. The store does not distinguish a missing JSON
// field from an explicit empty one.
package plan
