package researcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/contentmind/agent"
	"github.com/c360studio/contentmind/extract"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
)

// AgentID is the registry id of the research agent.
const AgentID = "researcher"

// Agent answers free-form research queries through the model router.
type Agent struct {
	router    *router.Router
	artifacts agent.ArtifactStore
	logger    *slog.Logger
}

// New creates the research agent.
func New(rt *router.Router, artifacts agent.ArtifactStore, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{router: rt, artifacts: artifacts, logger: logger}
}

// Factory builds the agent for registry-driven creation.
func Factory(deps agent.Deps, cfg agent.Config) (agent.Agent, error) {
	return New(deps.Router, deps.Artifacts, deps.Logger), nil
}

// Capabilities implements agent.Agent.
func (a *Agent) Capabilities() agent.Capabilities {
	return agent.Capabilities{
		ID:                    AgentID,
		Name:                  "Researcher",
		Description:           "Answers research questions and records the findings",
		SupportedContentTypes: []string{extract.ContentTypeQuery},
		Features:              []string{"research", "question-answering"},
	}
}

// Process routes the query to the research task and wraps the answer
// in an artifact.
func (a *Agent) Process(ctx context.Context, req agent.Request) (*agent.Result, error) {
	query, err := queryText(req.Content)
	if err != nil {
		return agent.ErrorResult(err), nil
	}

	query = normalizeQuery(query)
	if query == "" {
		return agent.ErrorResult(fmt.Errorf("research query is empty")), nil
	}

	result, err := a.router.Route(ctx, model.TaskResearch, map[string]any{"text": query}, req.Preferences.Research)
	if err != nil {
		return nil, err
	}

	provider := result.Provider
	artifact := &agent.Artifact{
		ContentType:   extract.ContentTypeQuery,
		Title:         truncate(query, 80),
		FullText:      result.Result,
		Source:        "research",
		ProvidersUsed: map[string]*string{model.TaskResearch.String(): &provider},
		Metadata:      map[string]any{"query": query},
		ExtractedAt:   time.Now().UTC(),
	}
	if result.FallbackReason != "" {
		artifact.FallbackReasons = map[string]string{
			model.TaskResearch.String(): result.FallbackReason,
		}
	}

	if a.artifacts != nil {
		id, err := a.artifacts.Put(ctx, artifact)
		if err != nil {
			a.logger.Warn("Artifact store write failed", "error", err)
		} else {
			artifact.ID = id
		}
	}

	return &agent.Result{Status: agent.StatusSuccess, Artifact: artifact}, nil
}

func queryText(content any) (string, error) {
	switch v := content.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("research content must be text, got %T", content)
	}
}

// normalizeQuery strips the gateway's research prefixes from the query.
func normalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)
	for _, prefix := range []string{"research:", "query:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(query[len(prefix):])
		}
	}
	return query
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
