package router

import (
	"fmt"

	"github.com/c360studio/contentmind/model"
)

// PromptSource resolves named prompt components. The component registry
// implements this; the router falls back to built-in prompts when a
// component is missing or fails to render.
type PromptSource interface {
	RenderByName(name string, inputs map[string]any) (string, error)
}

var builtinSystemPrompts = map[model.Task]string{
	model.TaskSummarize:       "You are a precise summarizer. Produce short, faithful summaries with no commentary.",
	model.TaskExtractEntities: "You are an entity extraction engine. Respond with a single JSON object mapping categories to lists of entity names. No prose.",
	model.TaskTagContent:      "You are a content tagger. Respond with a short comma-separated list of topical tags. No prose.",
	model.TaskResearch:        "You are a careful research assistant. Answer directly and note uncertainty where it exists.",
	model.TaskDigest:          "You are an editor assembling a periodic digest. Write concise, readable prose.",
}

var builtinTaskPrompts = map[model.Task]string{
	model.TaskSummarize:       "Summarize the following content in 2-3 sentences:\n\n%s",
	model.TaskExtractEntities: "Extract named entities (people, organizations, locations, topics) from the following content. Respond with a JSON object mapping each category to a list of names:\n\n%s",
	model.TaskTagContent:      "Suggest up to five topical tags for the following content, as a comma-separated list:\n\n%s",
	model.TaskResearch:        "Research the following question and answer it:\n\n%s",
	model.TaskDigest:          "Write a digest narrative covering the following items:\n\n%s",
}

const defaultSystemPrompt = "You are a helpful content processing assistant."

// systemPrompt resolves the system prompt for a task: a component named
// "system_prompt_<task>" when one exists, else the built-in string.
func (r *Router) systemPrompt(task model.Task) string {
	if r.prompts != nil {
		if rendered, err := r.prompts.RenderByName("system_prompt_"+task.String(), map[string]any{}); err == nil {
			return rendered
		}
	}
	if p, ok := builtinSystemPrompts[task]; ok {
		return p
	}
	return defaultSystemPrompt
}

// taskPrompt resolves the task prompt: a component named "task_<task>"
// rendered with the content map, else a built-in template around the
// content text.
func (r *Router) taskPrompt(task model.Task, content map[string]any) string {
	if r.prompts != nil {
		if rendered, err := r.prompts.RenderByName("task_"+task.String(), content); err == nil {
			return rendered
		}
	}

	text, _ := content["text"].(string)
	if tmpl, ok := builtinTaskPrompts[task]; ok {
		return fmt.Sprintf(tmpl, text)
	}
	return fmt.Sprintf("Process the following content:\n\n%s", text)
}
