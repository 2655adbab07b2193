package component

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/contentmind/llm"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
)

// TestResult records one harness run against a component.
type TestResult struct {
	ID               string          `json:"id"`
	ComponentID      string          `json:"component_id"`
	ComponentVersion string          `json:"component_version"`
	Inputs           map[string]any  `json:"inputs"`
	Rendered         string          `json:"rendered,omitempty"`
	Output           string          `json:"output,omitempty"`
	Provider         string          `json:"provider,omitempty"`
	Model            string          `json:"model,omitempty"`
	Tokens           *llm.TokenUsage `json:"tokens,omitempty"`
	FallbackReason   string          `json:"fallback_reason,omitempty"`
	Duration         time.Duration   `json:"duration_ns"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Succeeded reports whether the run completed without error.
func (t *TestResult) Succeeded() bool {
	return t.Error == ""
}

// maxRetainedResults bounds per-component result history.
const maxRetainedResults = 50

// Harness renders components with trial inputs and optionally runs the
// rendered prompt through the model router. Results are retained per
// component for later retrieval and comparison.
type Harness struct {
	registry *Registry
	router   *router.Router
	logger   *slog.Logger

	mu      sync.RWMutex
	results map[string][]*TestResult // component id → runs, oldest first
	byID    map[string]*TestResult
}

// NewHarness creates a harness over a component registry. The router
// may be nil when only TestRender is needed.
func NewHarness(registry *Registry, rt *router.Router, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{
		registry: registry,
		router:   rt,
		logger:   logger,
		results:  make(map[string][]*TestResult),
		byID:     make(map[string]*TestResult),
	}
}

// TestRender renders a component with the given inputs and records the
// timing. Rendering failures are captured in the result, not returned.
func (h *Harness) TestRender(id string, inputs map[string]any) (*TestResult, error) {
	c, err := h.registry.Get(id)
	if err != nil {
		return nil, err
	}

	result := h.newResult(c, inputs)
	start := time.Now()

	rendered, err := Render(c, inputs, h.logger)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Rendered = rendered
	}

	h.retain(result)
	return result, nil
}

// TestWithLLM renders a component and sends the rendered prompt through
// the model router for the given task. Provider, model, token counts,
// and latency are recorded on the result.
func (h *Harness) TestWithLLM(ctx context.Context, id string, inputs map[string]any, task model.Task, req router.Requirements) (*TestResult, error) {
	if h.router == nil {
		return nil, fmt.Errorf("harness has no router configured")
	}

	c, err := h.registry.Get(id)
	if err != nil {
		return nil, err
	}

	result := h.newResult(c, inputs)
	start := time.Now()

	rendered, err := Render(c, inputs, h.logger)
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err.Error()
		h.retain(result)
		return result, nil
	}
	result.Rendered = rendered

	routed, err := h.router.Route(ctx, task, map[string]any{"text": rendered}, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		h.retain(result)
		return result, err
	}

	result.Output = routed.Result
	result.Provider = routed.Provider
	result.Model = routed.Model
	result.Tokens = routed.Tokens
	result.FallbackReason = routed.FallbackReason

	h.retain(result)
	return result, nil
}

// Results returns the retained runs for a component, oldest first.
func (h *Harness) Results(componentID string) []*TestResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	runs := h.results[componentID]
	out := make([]*TestResult, len(runs))
	copy(out, runs)
	return out
}

// GetResult returns a retained run by result id.
func (h *Harness) GetResult(resultID string) (*TestResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.byID[resultID]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// ResultComparison is the pairwise comparison of two retained runs.
type ResultComparison struct {
	A             *TestResult   `json:"a"`
	B             *TestResult   `json:"b"`
	SameOutput    bool          `json:"same_output"`
	SameProvider  bool          `json:"same_provider"`
	DurationDelta time.Duration `json:"duration_delta_ns"`
}

// CompareResults compares two retained runs by result id.
func (h *Harness) CompareResults(idA, idB string) (*ResultComparison, error) {
	a, err := h.GetResult(idA)
	if err != nil {
		return nil, err
	}
	b, err := h.GetResult(idB)
	if err != nil {
		return nil, err
	}

	return &ResultComparison{
		A:             a,
		B:             b,
		SameOutput:    a.Output == b.Output && a.Rendered == b.Rendered,
		SameProvider:  a.Provider == b.Provider,
		DurationDelta: b.Duration - a.Duration,
	}, nil
}

func (h *Harness) newResult(c *Component, inputs map[string]any) *TestResult {
	return &TestResult{
		ID:               uuid.New().String(),
		ComponentID:      c.ID,
		ComponentVersion: c.Version,
		Inputs:           inputs,
		CreatedAt:        time.Now().UTC(),
	}
}

// retain stores a result, evicting the oldest run when the per-component
// history is full.
func (h *Harness) retain(result *TestResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	runs := h.results[result.ComponentID]
	if len(runs) >= maxRetainedResults {
		evicted := runs[0]
		delete(h.byID, evicted.ID)
		runs = runs[1:]
	}
	h.results[result.ComponentID] = append(runs, result)
	h.byID[result.ID] = result
}
