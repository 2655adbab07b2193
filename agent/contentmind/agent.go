package contentmind

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

// AgentID is the registry id of the content processing agent.
const AgentID = "contentmind"

// Agent processes raw content: extract by content type, then enrich
// through the model router (summary, entities, tags).
type Agent struct {
	router    *router.Router
	artifacts agent.ArtifactStore
	logger    *slog.Logger
	tools     map[string]extract.Extractor
}

// Option configures the agent at construction.
type Option func(*Agent)

// WithTranscriber wires a speech-to-text backend for audio content.
func WithTranscriber(t extract.Transcriber) Option {
	return func(a *Agent) {
		a.tools[extract.ContentTypeAudio] = extract.NewAudioExtractor(t)
	}
}

// WithTool overrides the extractor for a content type.
func WithTool(contentType string, e extract.Extractor) Option {
	return func(a *Agent) {
		a.tools[contentType] = e
	}
}

// New creates the content processing agent with its tool table.
func New(rt *router.Router, artifacts agent.ArtifactStore, logger *slog.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Agent{
		router:    rt,
		artifacts: artifacts,
		logger:    logger,
		tools:     make(map[string]extract.Extractor),
	}

	fetchTimeout := extract.DefaultFetchTimeout
	a.tools[extract.ContentTypeURL] = extract.NewURLExtractor(fetchTimeout)
	a.tools[extract.ContentTypeSocial] = extract.NewSocialExtractor(fetchTimeout)
	a.tools[extract.ContentTypePDF] = extract.NewPDFExtractor()
	a.tools[extract.ContentTypeText] = extract.NewTextExtractor()
	a.tools[extract.ContentTypeAudio] = extract.NewAudioExtractor(nil)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factory builds the agent for registry-driven creation.
func Factory(deps agent.Deps, cfg agent.Config) (agent.Agent, error) {
	return New(deps.Router, deps.Artifacts, deps.Logger), nil
}

// Capabilities implements agent.Agent.
func (a *Agent) Capabilities() agent.Capabilities {
	types := make([]string, 0, len(a.tools))
	for t := range a.tools {
		types = append(types, t)
	}

	return agent.Capabilities{
		ID:                    AgentID,
		Name:                  "ContentMind",
		Description:           "Extracts and enriches content into searchable artifacts",
		SupportedContentTypes: types,
		Features:              []string{"extraction", "summarization", "entity-extraction", "tagging"},
	}
}

// Process runs the standard pipeline: extract, then summarize, extract
// entities, and tag via the router, composing an artifact. Enricher
// degradation never fails the pipeline; extractor failure does.
func (a *Agent) Process(ctx context.Context, req agent.Request) (*agent.Result, error) {
	tool, ok := a.tools[req.ContentType]
	if !ok {
		return agent.ErrorResult(fmt.Errorf("no extractor for content type %q", req.ContentType)), nil
	}

	extracted, err := tool.Extract(ctx, req.Content, req.Metadata)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("Extraction failed",
			"content_type", req.ContentType,
			"error", err)
		return agent.ErrorResult(err), nil
	}

	artifact := &agent.Artifact{
		ContentType:     req.ContentType,
		Title:           extracted.Title,
		Summary:         extracted.Summary,
		FullText:        extracted.Text,
		Source:          extracted.Source,
		Author:          extracted.Author,
		PublishedDate:   extracted.PublishedDate,
		Metadata:        extracted.Metadata,
		ProvidersUsed:   make(map[string]*string),
		FallbackReasons: make(map[string]string),
		ExtractedAt:     time.Now().UTC(),
	}

	if strings.TrimSpace(extracted.Text) != "" {
		if err := a.enrich(ctx, artifact, extracted.Text, req.Preferences); err != nil {
			return nil, err
		}
	}

	if len(artifact.FallbackReasons) == 0 {
		artifact.FallbackReasons = nil
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

// enrich runs the three router sub-tasks in order. Only cancellation
// propagates; any other enricher failure annotates the artifact and
// the pipeline continues.
func (a *Agent) enrich(ctx context.Context, artifact *agent.Artifact, text string, prefs agent.Preferences) error {
	content := map[string]any{"text": text}

	summary, err := a.subTask(ctx, artifact, model.TaskSummarize, content, prefs.Summary)
	if err != nil {
		return err
	}
	if summary != "" {
		artifact.Summary = summary
	}

	entitiesRaw, err := a.subTask(ctx, artifact, model.TaskExtractEntities, content, prefs.Entities)
	if err != nil {
		return err
	}
	if entitiesRaw != "" {
		artifact.Entities = parseEntities(entitiesRaw)
	}

	tagsRaw, err := a.subTask(ctx, artifact, model.TaskTagContent, content, prefs.Tags)
	if err != nil {
		return err
	}
	artifact.Tags = splitTags(tagsRaw)

	return nil
}

// subTask routes one enrichment task and records which provider served
// it. Returns the raw result text, empty on enricher failure.
func (a *Agent) subTask(ctx context.Context, artifact *agent.Artifact, task model.Task, content map[string]any, req router.Requirements) (string, error) {
	key := task.String()

	result, err := a.router.Route(ctx, task, content, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.logger.Warn("Enrichment failed", "task", key, "error", err)
		artifact.ProvidersUsed[key] = nil
		return "", nil
	}

	provider := result.Provider
	artifact.ProvidersUsed[key] = &provider
	if result.FallbackReason != "" {
		artifact.FallbackReasons[key] = result.FallbackReason
	}
	return result.Result, nil
}

// splitTags parses a comma-separated tag string, dropping empties.
func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
