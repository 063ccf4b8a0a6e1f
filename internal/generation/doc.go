// Package generation provides the default phase executors backing the repair
// engine. Each executor drives a chat-completion style content generation
// service and persists its output to the plan store: master plan synthesis
// fills the module outline, lesson generation expands lessonless modules, and
// enrichment writes voiceover scripts and quizzes for bare lessons.
//
// Context indexing is a shared, corpus-wide step with no per-plan output;
// its executor only announces the refresh, matching the engine's view that
// the phase exposes no completeness signal.
package generation
