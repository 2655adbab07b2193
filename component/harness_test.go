package component

import (
	"context"
	"fmt"
	"testing"

	"github.com/c360studio/contentmind/llm"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
)

func newTestHarness(t *testing.T) (*Harness, *Component) {
	t.Helper()

	r := newTestRegistry(t)
	c, err := r.Create("summarizer", "", "Summarize {text} briefly.", nil, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	registry := model.NewRegistry(nil, map[string]*model.EndpointConfig{}, nil)
	rt := router.New(registry, llm.NewCaller(registry))
	return NewHarness(r, rt, nil), c
}

func TestHarnessTestRender(t *testing.T) {
	h, c := newTestHarness(t)

	result, err := h.TestRender(c.ID, map[string]any{"text": "the article"})
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	if !result.Succeeded() {
		t.Fatalf("run failed: %s", result.Error)
	}
	if result.Rendered != "Summarize the article briefly." {
		t.Errorf("Rendered = %q", result.Rendered)
	}
	if result.ComponentID != c.ID || result.ComponentVersion != "1.0.0" {
		t.Errorf("result = %+v", result)
	}
}

func TestHarnessTestRenderCapturesFailure(t *testing.T) {
	h, c := newTestHarness(t)

	result, err := h.TestRender(c.ID, map[string]any{})
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	if result.Succeeded() {
		t.Error("run with a missing input should fail")
	}
	if result.Error == "" {
		t.Error("failure should be recorded on the result")
	}

	// Failed runs are retained like successful ones.
	if runs := h.Results(c.ID); len(runs) != 1 {
		t.Errorf("Results() = %d runs, want 1", len(runs))
	}
}

func TestHarnessUnknownComponent(t *testing.T) {
	h, _ := newTestHarness(t)

	if _, err := h.TestRender("missing", nil); err == nil {
		t.Error("TestRender() of an unknown component should fail")
	}
}

func TestHarnessTestWithLLMDegrades(t *testing.T) {
	h, c := newTestHarness(t)

	result, err := h.TestWithLLM(context.Background(), c.ID,
		map[string]any{"text": "One. Two. Three. Four."}, model.TaskSummarize, router.Requirements{})
	if err != nil {
		t.Fatalf("TestWithLLM() error = %v", err)
	}

	if result.Provider != router.FallbackProvider {
		t.Errorf("Provider = %q, want fallback", result.Provider)
	}
	if result.FallbackReason != router.ReasonNoProviders {
		t.Errorf("FallbackReason = %q", result.FallbackReason)
	}
	if result.Output == "" {
		t.Error("degraded run should still produce output")
	}
}

func TestHarnessTestWithLLMRequiresRouter(t *testing.T) {
	r := newTestRegistry(t)
	h := NewHarness(r, nil, nil)

	if _, err := h.TestWithLLM(context.Background(), "any", nil, model.TaskSummarize, router.Requirements{}); err == nil {
		t.Error("TestWithLLM() without a router should fail")
	}
}

func TestHarnessCompareResults(t *testing.T) {
	h, c := newTestHarness(t)

	a, err := h.TestRender(c.ID, map[string]any{"text": "same"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.TestRender(c.ID, map[string]any{"text": "same"})
	if err != nil {
		t.Fatal(err)
	}

	cmp, err := h.CompareResults(a.ID, b.ID)
	if err != nil {
		t.Fatalf("CompareResults() error = %v", err)
	}
	if !cmp.SameOutput {
		t.Error("identical inputs should render the same output")
	}

	if _, err := h.CompareResults(a.ID, "missing"); err == nil {
		t.Error("CompareResults() with an unknown id should fail")
	}
}

func TestHarnessRetentionEvictsOldest(t *testing.T) {
	h, c := newTestHarness(t)

	var first string
	for i := 0; i < maxRetainedResults+5; i++ {
		result, err := h.TestRender(c.ID, map[string]any{"text": fmt.Sprintf("run %d", i)})
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = result.ID
		}
	}

	runs := h.Results(c.ID)
	if len(runs) != maxRetainedResults {
		t.Errorf("retained %d runs, want %d", len(runs), maxRetainedResults)
	}
	if _, err := h.GetResult(first); err == nil {
		t.Error("oldest run should have been evicted")
	}
}
