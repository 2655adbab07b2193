package contentmind

import (
	"encoding/json"
	"strings"

	"github.com/c360studio/contentmind/llm"
)

// parseEntities interprets the entity extraction result. Preferred
// form is a JSON object mapping category to names; models that ignore
// the format often emit "Category: a, b" lines, which are parsed as a
// second chance. Anything else is recorded as unstructured.
func parseEntities(raw string) map[string][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if jsonStr := llm.ExtractJSON(raw); jsonStr != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err == nil {
			if entities := normalizeEntityMap(parsed); len(entities) > 0 {
				return entities
			}
		}
	}

	if entities := parseEntityLines(raw); len(entities) > 0 {
		return entities
	}

	return map[string][]string{"unstructured": {raw}}
}

// normalizeEntityMap coerces a decoded JSON object into category→names.
func normalizeEntityMap(parsed map[string]any) map[string][]string {
	entities := make(map[string][]string)
	for category, value := range parsed {
		switch v := value.(type) {
		case []any:
			var names []string
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					names = append(names, strings.TrimSpace(s))
				}
			}
			if len(names) > 0 {
				entities[strings.ToLower(category)] = names
			}
		case string:
			if strings.TrimSpace(v) != "" {
				entities[strings.ToLower(category)] = []string{strings.TrimSpace(v)}
			}
		}
	}
	return entities
}

// parseEntityLines parses "Category: a, b" text, one category per line.
func parseEntityLines(raw string) map[string][]string {
	entities := make(map[string][]string)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		category, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" || strings.ContainsAny(category, "{}\"") {
			continue
		}

		var names []string
		for _, name := range strings.Split(rest, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			entities[category] = names
		}
	}
	return entities
}
