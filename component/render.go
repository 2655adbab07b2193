package component

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNilInputs is returned when Render is called with nil inputs.
var ErrNilInputs = errors.New("inputs must not be nil")

// MissingInputError reports a required input absent from the inputs map.
type MissingInputError struct {
	Name string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input: %s", e.Name)
}

// EmptyInputError reports a required input that is empty after trimming.
type EmptyInputError struct {
	Name string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("EmptyInput: required input %s is empty", e.Name)
}

// Render substitutes inputs into the component's template.
//
// Required inputs must be present and non-empty. Optional placeholders
// resolve to the empty string when absent. Any required-form placeholder
// that survives both passes is logged as a warning but rendering still
// succeeds — literal braces outside the grammar pass through untouched.
func Render(c *Component, inputs map[string]any, logger *slog.Logger) (string, error) {
	if inputs == nil {
		return "", ErrNilInputs
	}
	if logger == nil {
		logger = slog.Default()
	}

	required, optional := DeriveInputs(c.Template)

	// Check the declared required list when present; it normally matches
	// the template-derived one but is authoritative for the component.
	checkRequired := c.RequiredInputs
	if len(checkRequired) == 0 {
		checkRequired = required
	}

	for _, name := range checkRequired {
		value, ok := inputs[name]
		if !ok {
			return "", &MissingInputError{Name: name}
		}
		if value == nil || strings.TrimSpace(stringify(value)) == "" {
			return "", &EmptyInputError{Name: name}
		}
	}

	rendered := c.Template

	// First pass: optional placeholders. Absent or nil values become empty.
	for _, name := range optional {
		token := "{" + name + ":optional}"
		value := ""
		if v, ok := inputs[name]; ok && v != nil {
			value = stringify(v)
		}
		rendered = strings.ReplaceAll(rendered, token, value)
	}

	// Second pass: required placeholders. Nil becomes empty.
	for _, name := range required {
		token := "{" + name + "}"
		value := ""
		if v, ok := inputs[name]; ok && v != nil {
			value = stringify(v)
		}
		rendered = strings.ReplaceAll(rendered, token, value)
	}

	// Anything still matching the required grammar was not supplied.
	// Unmet optional placeholders were already resolved, so only
	// required-form leftovers warrant a warning.
	for _, p := range ParsePlaceholders(rendered) {
		if p.Optional {
			continue
		}
		logger.Warn("Unreplaced placeholder after rendering",
			"component", c.ID,
			"placeholder", p.Name)
	}

	return rendered, nil
}

// stringify converts an input value to its string form.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
