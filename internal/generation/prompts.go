package generation

import "fmt"

const masterPlanSystemPrompt = `You are a curriculum designer. Respond with a single JSON object of the form {"title": string, "modules": [{"title": string}]}. Produce between 4 and 10 modules that cover the subject from fundamentals to advanced practice. No prose outside the JSON.`

const lessonSystemPrompt = `You are a curriculum designer. Respond with a single JSON object of the form {"lessons": [{"title": string}]}. Produce between 3 and 8 lessons that progress logically through the module. No prose outside the JSON.`

const enrichmentSystemPrompt = `You are an instructional scriptwriter. Respond with a single JSON object of the form {"voiceover_script": string, "quiz": string}. The voiceover script should read naturally aloud in two to four minutes; the quiz should contain three short questions with answers. No prose outside the JSON.`

func masterPlanUserPrompt(planTitle string) string {
	return fmt.Sprintf("Design the module outline for a training curriculum titled %q.", planTitle)
}

func lessonUserPrompt(planTitle, moduleTitle string) string {
	return fmt.Sprintf("The curriculum is titled %q. Write the lesson list for the module %q.", planTitle, moduleTitle)
}

func enrichmentUserPrompt(moduleTitle, lessonTitle string) string {
	return fmt.Sprintf("Within the module %q, write the voiceover script and quiz for the lesson %q.", moduleTitle, lessonTitle)
}
