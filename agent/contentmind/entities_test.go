package contentmind

import (
	"reflect"
	"testing"
)

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string][]string
	}{
		{
			name: "json object",
			raw:  `{"People": ["Ada Lovelace", "Grace Hopper"], "Topics": ["computing"]}`,
			want: map[string][]string{
				"people": {"Ada Lovelace", "Grace Hopper"},
				"topics": {"computing"},
			},
		},
		{
			name: "json in code block",
			raw:  "Here you go:\n```json\n{\"organizations\": [\"NASA\"]}\n```",
			want: map[string][]string{"organizations": {"NASA"}},
		},
		{
			name: "single string value",
			raw:  `{"location": "Berlin"}`,
			want: map[string][]string{"location": {"Berlin"}},
		},
		{
			name: "category lines",
			raw:  "People: Ada Lovelace, Grace Hopper\nTopics: computing",
			want: map[string][]string{
				"people": {"Ada Lovelace", "Grace Hopper"},
				"topics": {"computing"},
			},
		},
		{
			name: "dashed category lines",
			raw:  "- People: Ada Lovelace\n- Topics: computing",
			want: map[string][]string{
				"people": {"Ada Lovelace"},
				"topics": {"computing"},
			},
		},
		{
			name: "empty json object becomes unstructured",
			raw:  "{}",
			want: map[string][]string{"unstructured": {"{}"}},
		},
		{
			name: "prose becomes unstructured",
			raw:  "The text mentions several researchers.",
			want: map[string][]string{"unstructured": {"The text mentions several researchers."}},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEntities(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseEntities(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeEntityMapDropsNonNames(t *testing.T) {
	parsed := map[string]any{
		"people": []any{"Ada", 42, "  "},
		"count":  3.0,
		"empty":  []any{},
	}

	got := normalizeEntityMap(parsed)
	want := map[string][]string{"people": {"Ada"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeEntityMap() = %v, want %v", got, want)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" go , networking ,, observability ")
	want := []string{"go", "networking", "observability"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTags() = %v, want %v", got, want)
	}

	if got := splitTags(""); got != nil {
		t.Errorf("splitTags(empty) = %v, want nil", got)
	}
}
