package component

import (
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func TestRegistryCreate(t *testing.T) {
	r := newTestRegistry(t)

	c, err := r.Create("summarizer", "condense text", "Summarize {text} in {style:optional} style", []string{"prod"}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if c.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", c.Version)
	}
	if len(c.RequiredInputs) != 1 || c.RequiredInputs[0] != "text" {
		t.Errorf("RequiredInputs = %v", c.RequiredInputs)
	}
	if len(c.OptionalInputs) != 1 || c.OptionalInputs[0] != "style" {
		t.Errorf("OptionalInputs = %v", c.OptionalInputs)
	}
	if c.ID == "" {
		t.Error("expected generated id")
	}
}

func TestRegistryCreateInvalidTemplate(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Create("bad", "", "Hello {name", nil, nil); err == nil {
		t.Error("expected error for mismatched braces")
	}
}

func TestRegistryUpdateBumpsAndSnapshots(t *testing.T) {
	r := newTestRegistry(t)
	c, err := r.Create("summarizer", "", "Summarize {text}", nil, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newTemplate := "Summarize {text} briefly"
	updated, err := r.Update(c.ID, Changes{Template: &newTemplate}, BumpPatch)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Version != "1.0.1" {
		t.Errorf("Version = %q, want 1.0.1", updated.Version)
	}

	// Prior version must be readable as a snapshot.
	old, err := r.GetVersion(c.ID, "1.0.0")
	if err != nil {
		t.Fatalf("GetVersion(1.0.0) error = %v", err)
	}
	if old.Template != "Summarize {text}" {
		t.Errorf("snapshot template = %q", old.Template)
	}

	versions, err := r.Versions(c.ID)
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != "1.0.0" || versions[0].Current {
		t.Errorf("versions[0] = %+v", versions[0])
	}
	if versions[1].Version != "1.0.1" || !versions[1].Current {
		t.Errorf("versions[1] = %+v", versions[1])
	}
}

func TestRegistryUpdateNoChangeIsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "desc", "Summarize {text}", nil, nil)

	sameDesc := "desc"
	updated, err := r.Update(c.ID, Changes{Description: &sameDesc}, BumpPatch)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Version != "1.0.0" {
		t.Errorf("no-op update bumped version to %q", updated.Version)
	}

	versions, _ := r.Versions(c.ID)
	if len(versions) != 1 {
		t.Errorf("no-op update created a snapshot: %d versions", len(versions))
	}
}

func TestRegistryGetByName(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("tagger", "", "Tag {text}", nil, nil)

	got, err := r.GetByName("tagger")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("GetByName id = %q, want %q", got.ID, c.ID)
	}

	if _, err := r.GetByName("unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryExportImportIdentity(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "condense", "Summarize {text}", []string{"prod"}, nil)

	data, err := r.Export(c.ID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	other := newTestRegistry(t)
	id, err := other.Import(data, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if id != c.ID {
		t.Errorf("imported id = %q, want %q", id, c.ID)
	}

	got, err := other.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Template != c.Template || got.Name != c.Name || got.Version != c.Version {
		t.Errorf("imported component differs: %+v", got)
	}
}

func TestRegistryImportExistingWithoutOverwrite(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "", "Summarize {text}", nil, nil)

	data, _ := r.Export(c.ID)
	if _, err := r.Import(data, false); err == nil {
		t.Error("expected error importing existing id without overwrite")
	}
	if _, err := r.Import(data, true); err != nil {
		t.Errorf("Import(overwrite) error = %v", err)
	}
}

func TestRegistryDuplicateResetsVersion(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "", "Summarize {text}", nil, nil)

	tmpl := "Summarize {text} tersely"
	if _, err := r.Update(c.ID, Changes{Template: &tmpl}, BumpMinor); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	dup, err := r.Duplicate(c.ID, "summarizer-v2")
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if dup.ID == c.ID {
		t.Error("duplicate shares id with source")
	}
	if dup.Version != "1.0.0" {
		t.Errorf("duplicate version = %q, want 1.0.0", dup.Version)
	}
	if dup.Name != "summarizer-v2" {
		t.Errorf("duplicate name = %q", dup.Name)
	}
	if dup.Template != tmpl {
		t.Errorf("duplicate template = %q", dup.Template)
	}
}

func TestRegistryArchive(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "", "Summarize {text}", nil, nil)

	if err := r.Archive(c.ID); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if _, err := r.Get(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after archive, got %v", err)
	}
	if _, err := r.GetByName("summarizer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("archived name still resolvable: %v", err)
	}
}

func TestRegistryCompare(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := r.Create("summarizer", "", "Summarize {text}", []string{"a"}, nil)

	tmpl := "Summarize {text} and {tone:optional}"
	tags := []string{"b"}
	if _, err := r.Update(c.ID, Changes{Template: &tmpl, Tags: &tags}, BumpMinor); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	diff, err := r.Compare(c.ID, "1.0.0", "1.1.0")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if diff.Empty() {
		t.Fatal("expected non-empty diff")
	}

	foundTemplate := false
	for _, f := range diff.Fields {
		if f.Field == "template" {
			foundTemplate = true
		}
	}
	if !foundTemplate {
		t.Errorf("diff fields missing template: %+v", diff.Fields)
	}

	foundTags := false
	for _, l := range diff.Lists {
		if l.Field == "tags" {
			foundTags = true
			if len(l.Added) != 1 || l.Added[0] != "b" || len(l.Removed) != 1 || l.Removed[0] != "a" {
				t.Errorf("tags diff = %+v", l)
			}
		}
	}
	if !foundTags {
		t.Errorf("diff lists missing tags: %+v", diff.Lists)
	}
}

func TestRegistryRenderByName(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Create("greeting", "", "Hello {name}, you are {role:optional}.", nil, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	out, err := r.RenderByName("greeting", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("RenderByName() error = %v", err)
	}
	if out != "Hello Ada, you are ." {
		t.Errorf("RenderByName() = %q", out)
	}
}
