package component

import (
	"fmt"
	"strings"
)

// ValidationResult holds the outcome of template validation.
// Validation never fails with an error; structural problems are
// reported in Errors and style problems in Warnings.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate performs structural checks on a template string.
//
// Errors: empty template, mismatched braces, invalid placeholder syntax.
// Warnings: no placeholders, placeholder name containing whitespace.
func Validate(template string) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(template) == "" {
		result.Errors = append(result.Errors, "template is empty")
		result.Valid = false
		return result
	}

	opens := strings.Count(template, "{")
	closes := strings.Count(template, "}")
	if opens != closes {
		result.Errors = append(result.Errors,
			fmt.Sprintf("mismatched braces: %d opening vs %d closing", opens, closes))
	}

	// Every {...} token must conform to the placeholder grammar.
	// Tokens whose name contains whitespace are likely typos and only warn.
	tokens := braceTokenPattern.FindAllString(template, -1)
	for _, tok := range tokens {
		if placeholderPattern.MatchString(tok) {
			continue
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(tok, "{"), "}")
		if strings.ContainsAny(inner, " \t") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("placeholder name contains whitespace: %s", tok))
			continue
		}
		result.Errors = append(result.Errors,
			fmt.Sprintf("invalid placeholder syntax: %s", tok))
	}

	if len(ParsePlaceholders(template)) == 0 {
		result.Warnings = append(result.Warnings, "template has no placeholders")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateComponent validates a component's template together with its
// declared input lists.
//
// Additional warnings: a required_input declared but not present in the
// template, and a template variable declared in neither required nor
// optional inputs.
func ValidateComponent(c *Component) ValidationResult {
	result := Validate(c.Template)

	inTemplate := make(map[string]bool)
	for _, p := range ParsePlaceholders(c.Template) {
		inTemplate[p.Name] = true
	}

	declared := make(map[string]bool)
	for _, name := range c.RequiredInputs {
		declared[name] = true
		if !inTemplate[name] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("required input %q is not present in template", name))
		}
	}
	for _, name := range c.OptionalInputs {
		declared[name] = true
	}

	for _, p := range ParsePlaceholders(c.Template) {
		if !declared[p.Name] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("template variable %q is declared in neither required nor optional inputs", p.Name))
		}
	}

	return result
}
