package router

import (
	"time"

	"github.com/c360studio/contentmind/llm"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FallbackProvider is the provider name carried by simplified results.
const FallbackProvider = "fallback"

// ProviderResult is the outcome of a single route call.
//
// A simplified (non-LLM) result still reports StatusSuccess; the
// FallbackReason field records why the degraded path was taken.
type ProviderResult struct {
	Status         string          `json:"status"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model,omitempty"`
	Result         string          `json:"result"`
	Tokens         *llm.TokenUsage `json:"tokens,omitempty"`
	ProcessedAt    time.Time       `json:"processed_at"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
}

// Degraded reports whether this result came from the fallback path.
func (r *ProviderResult) Degraded() bool {
	return r.Provider == FallbackProvider
}

// ModelPreferenceLocal requests the local path with fallback chain.
const ModelPreferenceLocal = "local"

// Requirements carries per-call routing hints. The zero value lets the
// routing policy decide everything.
type Requirements struct {
	// Provider explicitly names a provider (local, anthropic, openai).
	// Used when configured and healthy; otherwise the policy continues.
	Provider string `json:"provider,omitempty"`

	// ModelPreference set to "local" forces the local path.
	ModelPreference string `json:"model_preference,omitempty"`

	// Temperature overrides the configured default when set.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens limits the response length. 0 uses the endpoint default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// GlobalTimeout bounds the whole route call. 0 uses the router default.
	GlobalTimeout time.Duration `json:"-"`
}
