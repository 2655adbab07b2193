package component

// FieldChange records a scalar field that differs between two versions.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// ListChange records additions and removals in a list field.
type ListChange struct {
	Field   string   `json:"field"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Diff describes the differences between two versions of a component.
type Diff struct {
	ID     string        `json:"id"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Fields []FieldChange `json:"fields,omitempty"`
	Lists  []ListChange  `json:"lists,omitempty"`
}

// Empty reports whether the two versions have identical content.
func (d *Diff) Empty() bool {
	return len(d.Fields) == 0 && len(d.Lists) == 0
}

// CompareComponents computes per-field changes between two component
// states. Scalar fields produce FieldChange entries; input, tag, and
// output lists produce ListChange entries with additions and removals.
func CompareComponents(from, to *Component) *Diff {
	d := &Diff{
		ID:   from.ID,
		From: from.Version,
		To:   to.Version,
	}

	scalar := func(field string, old, new string) {
		if old != new {
			d.Fields = append(d.Fields, FieldChange{Field: field, Old: old, New: new})
		}
	}
	scalar("name", from.Name, to.Name)
	scalar("description", from.Description, to.Description)
	scalar("template", from.Template, to.Template)

	list := func(field string, old, new []string) {
		added, removed := diffLists(old, new)
		if len(added) > 0 || len(removed) > 0 {
			d.Lists = append(d.Lists, ListChange{Field: field, Added: added, Removed: removed})
		}
	}
	list("required_inputs", from.RequiredInputs, to.RequiredInputs)
	list("optional_inputs", from.OptionalInputs, to.OptionalInputs)
	list("outputs", from.Outputs, to.Outputs)
	list("tags", from.Tags, to.Tags)

	return d
}

// diffLists returns elements added in new and removed from old.
func diffLists(old, new []string) (added, removed []string) {
	oldSet := make(map[string]bool, len(old))
	for _, v := range old {
		oldSet[v] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, v := range new {
		newSet[v] = true
	}

	for _, v := range new {
		if !oldSet[v] {
			added = append(added, v)
		}
	}
	for _, v := range old {
		if !newSet[v] {
			removed = append(removed, v)
		}
	}
	return added, removed
}
