package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/c360studio/contentmind/agent"
)

func putArtifact(t *testing.T, m *Memory, contentType string, tags []string, extractedAt time.Time) string {
	t.Helper()

	id, err := m.Put(context.Background(), &agent.Artifact{
		ContentType: contentType,
		Title:       contentType + " item",
		Tags:        tags,
		ExtractedAt: extractedAt,
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return id
}

func TestMemoryPutAssignsID(t *testing.T) {
	m := NewMemory()

	id := putArtifact(t, m, "url", nil, time.Now())
	if id == "" {
		t.Fatal("Put() should assign an id")
	}

	got, err := m.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "url item" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory()

	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	id := putArtifact(t, m, "url", nil, time.Now())

	first, _ := m.Get(context.Background(), id)
	first.Title = "mutated"

	second, _ := m.Get(context.Background(), id)
	if second.Title != "url item" {
		t.Error("Get() should hand out copies")
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	putArtifact(t, m, "old", nil, now.Add(-2*time.Hour))
	putArtifact(t, m, "new", nil, now)
	putArtifact(t, m, "mid", nil, now.Add(-time.Hour))

	out, err := m.List(context.Background(), agent.ArtifactFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("List() returned %d artifacts", len(out))
	}
	if out[0].ContentType != "new" || out[1].ContentType != "mid" || out[2].ContentType != "old" {
		t.Errorf("order = %s, %s, %s", out[0].ContentType, out[1].ContentType, out[2].ContentType)
	}
}

func TestMemoryListFilters(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	putArtifact(t, m, "url", []string{"Go", "networking"}, now)
	putArtifact(t, m, "pdf", []string{"papers"}, now)
	putArtifact(t, m, "url", []string{"cooking"}, now.Add(-48*time.Hour))

	// Content type matching is case-insensitive.
	out, err := m.List(context.Background(), agent.ArtifactFilter{ContentTypes: []string{"URL"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("content type filter matched %d, want 2", len(out))
	}

	// Tag filter matches any listed tag, case-insensitively.
	out, err = m.List(context.Background(), agent.ArtifactFilter{Tags: []string{"go", "papers"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("tag filter matched %d, want 2", len(out))
	}

	// Since cuts off older artifacts.
	out, err = m.List(context.Background(), agent.ArtifactFilter{Since: now.Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("since filter matched %d, want 2", len(out))
	}
}
