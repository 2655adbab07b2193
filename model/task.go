// Package model provides task-based endpoint selection for the model router.
// Instead of hardcoding provider names, callers specify tasks (summarize,
// extract_entities, tag_content) and the registry resolves them to configured
// endpoints with health-aware availability.
package model

// Task represents an inference task the router can dispatch.
type Task string

const (
	// TaskSummarize produces a short summary of content text.
	TaskSummarize Task = "summarize"

	// TaskExtractEntities extracts named entities as a JSON object.
	TaskExtractEntities Task = "extract_entities"

	// TaskTagContent produces topical tags for content text.
	TaskTagContent Task = "tag_content"

	// TaskResearch answers a free-form research question.
	TaskResearch Task = "research"

	// TaskDigest assembles a digest narrative from accumulated artifacts.
	TaskDigest Task = "digest"
)

// defaultComplexity is used for tasks without an explicit complexity estimate.
const defaultComplexity = 0.5

// taskComplexity maps tasks to a [0,1] complexity estimate.
// Complexity at or above the capable threshold routes to the more
// capable cloud endpoint when no local model is available.
var taskComplexity = map[Task]float64{
	TaskSummarize:       0.4,
	TaskExtractEntities: 0.7,
	TaskTagContent:      0.2,
	TaskResearch:        0.8,
	TaskDigest:          0.6,
}

// IsValid checks if a task string is a known task.
func (t Task) IsValid() bool {
	switch t {
	case TaskSummarize, TaskExtractEntities, TaskTagContent, TaskResearch, TaskDigest:
		return true
	}
	return false
}

// String returns the string representation of the task.
func (t Task) String() string {
	return string(t)
}

// ParseTask converts a string to a Task, returning empty for invalid values.
func ParseTask(s string) Task {
	t := Task(s)
	if t.IsValid() {
		return t
	}
	return ""
}
