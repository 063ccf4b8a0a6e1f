// Package services provides cross-cutting helpers shared by the engine and
// the generation executors: a small error taxonomy with sentinel markers used
// for failure classification, and context annotation helpers that carry plan,
// phase, and run identifiers into structured logs.
package services
