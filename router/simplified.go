package router

import (
	"regexp"
	"strings"
	"time"

	"github.com/c360studio/contentmind/model"
)

// Fallback reasons recorded on simplified results.
const (
	ReasonGlobalTimeout    = "GLOBAL_TIMEOUT"
	ReasonTimeout          = "TIMEOUT"
	ReasonLocalUnavailable = "LOCAL_LLM_UNAVAILABLE"
	ReasonNoProviders      = "NO_PROVIDERS_AVAILABLE"
)

// ErrorReason formats a provider error as a fallback reason.
func ErrorReason(err error) string {
	return "ERROR:" + err.Error()
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]`)

// GenerateSimplified produces a deterministic, no-network result for a
// task. Used when every provider is unavailable or timed out. The
// result always reports success with provider "fallback" and carries
// the reason the degraded path was taken.
func GenerateSimplified(task model.Task, content map[string]any, reason string) *ProviderResult {
	text, _ := content["text"].(string)

	var result string
	switch task {
	case model.TaskSummarize:
		result = firstSentences(text, 3)
	case model.TaskExtractEntities:
		result = "{}"
	case model.TaskTagContent:
		result = strings.Join(simpleTags(text, 5), ", ")
	default:
		result = "Automatic processing was unavailable for this content; the original text has been kept unmodified."
	}

	return &ProviderResult{
		Status:         StatusSuccess,
		Provider:       FallbackProvider,
		Result:         result,
		ProcessedAt:    time.Now().UTC(),
		FallbackReason: reason,
	}
}

// firstSentences returns the first n sentences of text, or the whole
// text when it has no sentence terminators.
func firstSentences(text string, n int) string {
	matches := sentencePattern.FindAllString(text, n)
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}
	for i, m := range matches {
		matches[i] = strings.TrimSpace(m)
	}
	return strings.Join(matches, " ")
}

// simpleTags returns up to max distinct lowercased words of length > 4.
func simpleTags(text string, max int) []string {
	seen := make(map[string]bool)
	var tags []string

	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	}) {
		word = strings.ToLower(word)
		if len(word) <= 4 || seen[word] {
			continue
		}
		seen[word] = true
		tags = append(tags, word)
		if len(tags) == max {
			break
		}
	}
	return tags
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
