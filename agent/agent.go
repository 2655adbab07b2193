package agent

import (
	"context"
	"time"

	"github.com/c360studio/contentmind/router"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Capabilities describes what an agent can do. Returned by every agent
// and aggregated by the registry.
type Capabilities struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	SupportedContentTypes []string `json:"supported_content_types"`
	Features              []string `json:"features"`
}

// Preferences carries per-subtask routing requirements.
type Preferences struct {
	Summary  router.Requirements `json:"summary,omitempty"`
	Entities router.Requirements `json:"entities,omitempty"`
	Tags     router.Requirements `json:"tags,omitempty"`
	Research router.Requirements `json:"research,omitempty"`
}

// Request is a single processing request. Content-processing agents
// read ContentType and Content; research-style agents read Content as
// the query text. Agents must not retain request state between calls.
type Request struct {
	ContentType string         `json:"content_type"`
	Content     any            `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Preferences Preferences    `json:"provider_preferences,omitempty"`
}

// Result is the outcome of one Process call.
type Result struct {
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Artifact *Artifact `json:"processed_content,omitempty"`
}

// Artifact is the enriched representation of a piece of content.
type Artifact struct {
	ID            string              `json:"id,omitempty"`
	ContentType   string              `json:"content_type"`
	Title         string              `json:"title"`
	Summary       string              `json:"summary,omitempty"`
	FullText      string              `json:"full_text"`
	Source        string              `json:"source,omitempty"`
	Author        string              `json:"author,omitempty"`
	PublishedDate string              `json:"published_date,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	Entities      map[string][]string `json:"entities,omitempty"`
	Metadata      map[string]any      `json:"metadata,omitempty"`

	// ProvidersUsed maps each enrichment sub-task to the provider that
	// served it; nil marks a sub-task whose enricher failed outright.
	ProvidersUsed map[string]*string `json:"providers_used"`

	// FallbackReasons records why any sub-task took the degraded path.
	FallbackReasons map[string]string `json:"fallback_reasons,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// Degraded reports whether any sub-task fell back.
func (a *Artifact) Degraded() bool {
	return len(a.FallbackReasons) > 0
}

// Agent is the processing contract consumed by the gateway and the
// registry. Process must be cancellable and stateless across calls.
type Agent interface {
	Capabilities() Capabilities
	Process(ctx context.Context, req Request) (*Result, error)
}

// ArtifactFilter selects stored artifacts.
type ArtifactFilter struct {
	ContentTypes []string
	Tags         []string
	Since        time.Time
}

// ArtifactStore persists artifacts for later digest assembly. The
// store package provides implementations.
type ArtifactStore interface {
	Put(ctx context.Context, a *Artifact) (string, error)
	Get(ctx context.Context, id string) (*Artifact, error)
	List(ctx context.Context, filter ArtifactFilter) ([]*Artifact, error)
}

// ErrorResult builds an error Result from an error.
func ErrorResult(err error) *Result {
	return &Result{Status: StatusError, Error: err.Error()}
}
