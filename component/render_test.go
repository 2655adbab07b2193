package component

import (
	"errors"
	"testing"
)

func greetingComponent() *Component {
	return &Component{
		ID:             "greeting",
		Name:           "greeting",
		Template:       "Hello {name}, you are {role:optional}.",
		RequiredInputs: []string{"name"},
		OptionalInputs: []string{"role"},
	}
}

func TestRenderOptionalAbsent(t *testing.T) {
	out, err := Render(greetingComponent(), map[string]any{"name": "Ada"}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Hello Ada, you are ." {
		t.Errorf("Render() = %q, want %q", out, "Hello Ada, you are .")
	}
}

func TestRenderOptionalPresent(t *testing.T) {
	out, err := Render(greetingComponent(), map[string]any{"name": "Ada", "role": "an engineer"}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Hello Ada, you are an engineer." {
		t.Errorf("Render() = %q", out)
	}
}

func TestRenderMissingRequired(t *testing.T) {
	_, err := Render(greetingComponent(), map[string]any{"role": "x"}, nil)

	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingInputError, got %v", err)
	}
	if missing.Name != "name" {
		t.Errorf("missing input = %q, want name", missing.Name)
	}
}

func TestRenderEmptyRequired(t *testing.T) {
	_, err := Render(greetingComponent(), map[string]any{"name": "   "}, nil)

	var empty *EmptyInputError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyInputError, got %v", err)
	}
}

func TestRenderNilInputs(t *testing.T) {
	_, err := Render(greetingComponent(), nil, nil)
	if !errors.Is(err, ErrNilInputs) {
		t.Errorf("expected ErrNilInputs, got %v", err)
	}
}

func TestRenderNonStringValues(t *testing.T) {
	c := &Component{
		ID:             "counter",
		Template:       "count: {count}",
		RequiredInputs: []string{"count"},
	}
	out, err := Render(c, map[string]any{"count": 42}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "count: 42" {
		t.Errorf("Render() = %q", out)
	}
}

func TestRenderLiteralBracesPassThrough(t *testing.T) {
	c := &Component{
		ID:             "json-example",
		Template:       `Respond as {"key": "value"} for {text}`,
		RequiredInputs: []string{"text"},
	}
	out, err := Render(c, map[string]any{"text": "input"}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != `Respond as {"key": "value"} for input` {
		t.Errorf("Render() = %q", out)
	}
}
