package router

import (
	"reflect"
	"testing"

	"github.com/c360studio/contentmind/model"
)

func TestGenerateSimplifiedSummarize(t *testing.T) {
	content := map[string]any{"text": "First point. Second point. Third point. Fourth point."}

	result := GenerateSimplified(model.TaskSummarize, content, ReasonNoProviders)

	if result.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if result.Provider != FallbackProvider {
		t.Errorf("Provider = %q, want fallback", result.Provider)
	}
	if result.FallbackReason != ReasonNoProviders {
		t.Errorf("FallbackReason = %q", result.FallbackReason)
	}
	if result.Result != "First point. Second point. Third point." {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestGenerateSimplifiedSummarizeNoTerminators(t *testing.T) {
	content := map[string]any{"text": "  just a fragment without punctuation  "}

	result := GenerateSimplified(model.TaskSummarize, content, ReasonTimeout)
	if result.Result != "just a fragment without punctuation" {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestGenerateSimplifiedEntities(t *testing.T) {
	result := GenerateSimplified(model.TaskExtractEntities, map[string]any{"text": "anything"}, ReasonGlobalTimeout)
	if result.Result != "{}" {
		t.Errorf("Result = %q, want {}", result.Result)
	}
}

func TestGenerateSimplifiedTags(t *testing.T) {
	content := map[string]any{"text": "Kubernetes cluster networking with Kubernetes ingress and DNS"}

	result := GenerateSimplified(model.TaskTagContent, content, ReasonNoProviders)

	// Distinct lowercased words longer than four characters, first five.
	if result.Result != "kubernetes, cluster, networking, ingress" {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestGenerateSimplifiedDefault(t *testing.T) {
	result := GenerateSimplified(model.TaskResearch, map[string]any{"text": "x"}, ReasonNoProviders)
	if result.Result == "" {
		t.Error("default simplified result must not be empty")
	}
	if !result.Degraded() {
		t.Error("simplified result should report degraded")
	}
}

func TestSimpleTagsLimit(t *testing.T) {
	tags := simpleTags("alpha bravo charlie deltaa echoo foxtrot gholff indigo", 5)
	want := []string{"alpha", "bravo", "charlie", "deltaa", "echoo"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("simpleTags() = %v, want %v", tags, want)
	}
}

func TestErrorReason(t *testing.T) {
	if got := ErrorReason(errTest); got != "ERROR:boom" {
		t.Errorf("ErrorReason() = %q", got)
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }
