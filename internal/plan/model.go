package plan

import (
	"strings"
	"time"
)

// Plan is a curriculum document under construction.
type Plan struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Modules   []Module  `json:"modules"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Module is one unit of a plan. An empty lesson list means lesson generation
// has not yet produced content for this module.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is one teachable item within a module. VoiceoverScript and Quiz are
// filled in by the enrichment phase.
type Lesson struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	VoiceoverScript string `json:"voiceover_script,omitempty"`
	Quiz            string `json:"quiz,omitempty"`
}

// HasScript reports whether the lesson carries a voiceover script.
func (l Lesson) HasScript() bool {
	return strings.TrimSpace(l.VoiceoverScript) != ""
}

// ModuleCount returns the number of modules in the plan.
func (p *Plan) ModuleCount() int {
	if p == nil {
		return 0
	}
	return len(p.Modules)
}

// LessonCount returns the total number of lessons across all modules.
func (p *Plan) LessonCount() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, m := range p.Modules {
		total += len(m.Lessons)
	}
	return total
}

// ModulesMissingLessons counts modules whose lesson list is empty.
func (p *Plan) ModulesMissingLessons() int {
	if p == nil {
		return 0
	}
	missing := 0
	for _, m := range p.Modules {
		if len(m.Lessons) == 0 {
			missing++
		}
	}
	return missing
}

// LessonsMissingScripts counts lessons lacking a voiceover script. A module
// with no lessons contributes nothing; the count covers only lessons that
// exist.
func (p *Plan) LessonsMissingScripts() int {
	if p == nil {
		return 0
	}
	missing := 0
	for _, m := range p.Modules {
		for _, l := range m.Lessons {
			if !l.HasScript() {
				missing++
			}
		}
	}
	return missing
}
