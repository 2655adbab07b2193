package component

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		valid     bool
		errorPart string
		warnPart  string
	}{
		{
			name:     "valid with placeholders",
			template: "Summarize {text} in {style:optional} style",
			valid:    true,
		},
		{
			name:      "empty template",
			template:  "   ",
			valid:     false,
			errorPart: "empty",
		},
		{
			name:      "mismatched braces",
			template:  "Hello {name",
			valid:     false,
			errorPart: "mismatched braces",
		},
		{
			name:      "invalid placeholder syntax",
			template:  "Hello {na-me}",
			valid:     false,
			errorPart: "invalid placeholder syntax",
		},
		{
			name:     "whitespace in name only warns",
			template: "Hello {first name} and {other}",
			valid:    true,
			warnPart: "whitespace",
		},
		{
			name:     "no placeholders warns",
			template: "static prompt",
			valid:    true,
			warnPart: "no placeholders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.template)
			if result.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors: %v)", result.Valid, tt.valid, result.Errors)
			}
			if tt.errorPart != "" && !containsSubstring(result.Errors, tt.errorPart) {
				t.Errorf("errors %v missing %q", result.Errors, tt.errorPart)
			}
			if tt.warnPart != "" && !containsSubstring(result.Warnings, tt.warnPart) {
				t.Errorf("warnings %v missing %q", result.Warnings, tt.warnPart)
			}
		})
	}
}

func TestValidateComponentInputMismatch(t *testing.T) {
	c := &Component{
		Template:       "Process {text}",
		RequiredInputs: []string{"text", "ghost"},
	}

	result := ValidateComponent(c)
	if !result.Valid {
		t.Fatalf("expected valid, errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "ghost") {
		t.Errorf("expected warning about undeclared required input, got %v", result.Warnings)
	}
}

func TestValidateComponentUndeclaredVariable(t *testing.T) {
	c := &Component{
		Template: "Process {text} with {tone}",
	}

	result := ValidateComponent(c)
	if !containsSubstring(result.Warnings, "neither required nor optional") {
		t.Errorf("expected undeclared variable warning, got %v", result.Warnings)
	}
}

func containsSubstring(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
