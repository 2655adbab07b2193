// Package component provides versioned, parameterized prompt templates
// with a validator, a renderer, and a test harness. Components are the
// source of system and task prompts for the model router.
package component

import (
	"regexp"
	"time"
)

// Component is a versioned prompt template with metadata.
// Prior versions are immutable snapshots kept by the store.
type Component struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Version        string         `json:"version"`
	Template       string         `json:"template"`
	RequiredInputs []string       `json:"required_inputs"`
	OptionalInputs []string       `json:"optional_inputs"`
	Outputs        []string       `json:"outputs,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Snapshot is an immutable copy of a component at a prior version.
type Snapshot struct {
	Component
	SnapshotID        string    `json:"snapshot_id"`
	SnapshotTimestamp time.Time `json:"snapshot_timestamp"`
}

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	copied := *c
	copied.RequiredInputs = append([]string(nil), c.RequiredInputs...)
	copied.OptionalInputs = append([]string(nil), c.OptionalInputs...)
	copied.Outputs = append([]string(nil), c.Outputs...)
	copied.Tags = append([]string(nil), c.Tags...)
	if c.Metadata != nil {
		copied.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

// Placeholder grammar: {name} for required inputs, {name:optional} for
// optional ones. Names are restricted to [A-Za-z0-9_]+; any other {...}
// pattern is invalid.
var (
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)(:optional)?\}`)
	braceTokenPattern  = regexp.MustCompile(`\{[^{}]*\}`)
)

// Placeholder is one parsed template placeholder.
type Placeholder struct {
	Name     string
	Optional bool
}

// ParsePlaceholders returns every grammar-conforming placeholder in the
// template, in order of first appearance, deduplicated.
func ParsePlaceholders(template string) []Placeholder {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)

	seen := make(map[string]bool)
	placeholders := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		optional := m[2] != ""
		key := name
		if optional {
			key += ":optional"
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		placeholders = append(placeholders, Placeholder{Name: name, Optional: optional})
	}
	return placeholders
}

// DeriveInputs splits the template's placeholders into required and
// optional input name lists.
func DeriveInputs(template string) (required, optional []string) {
	for _, p := range ParsePlaceholders(template) {
		if p.Optional {
			optional = append(optional, p.Name)
		} else {
			required = append(required, p.Name)
		}
	}
	return required, optional
}
