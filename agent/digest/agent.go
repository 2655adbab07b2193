package digest

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/contentmind/agent"
	"github.com/c360studio/contentmind/delivery"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
)

// AgentID is the registry id of the digest agent.
const AgentID = "digest"

// DefaultPeriod is how far back a digest reaches for artifacts.
const DefaultPeriod = 24 * time.Hour

// Request describes one digest run. The scheduler supplies these
// fields from the job row.
type Request struct {
	DigestID       string   `json:"digest_id"`
	DigestType     string   `json:"digest_type"`
	Recipient      string   `json:"recipient"`
	DeliveryMethod string   `json:"delivery_method"`
	ContentTypes   []string `json:"content_types,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Agent assembles a digest of recently stored artifacts and delivers
// it to the recipient.
type Agent struct {
	router     *router.Router
	artifacts  agent.ArtifactStore
	deliverers map[string]delivery.Deliverer
	logger     *slog.Logger
	period     time.Duration
}

// Option configures the digest agent.
type Option func(*Agent)

// WithPeriod sets how far back a digest reaches for artifacts.
func WithPeriod(d time.Duration) Option {
	return func(a *Agent) {
		a.period = d
	}
}

// New creates the digest agent.
func New(rt *router.Router, artifacts agent.ArtifactStore, deliverers map[string]delivery.Deliverer, logger *slog.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		router:     rt,
		artifacts:  artifacts,
		deliverers: deliverers,
		logger:     logger,
		period:     DefaultPeriod,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factory builds the agent for registry-driven creation.
func Factory(deps agent.Deps, cfg agent.Config) (agent.Agent, error) {
	return New(deps.Router, deps.Artifacts, deps.Deliverers, deps.Logger), nil
}

// Capabilities implements agent.Agent.
func (a *Agent) Capabilities() agent.Capabilities {
	methods := make([]string, 0, len(a.deliverers))
	for m := range a.deliverers {
		methods = append(methods, m)
	}

	return agent.Capabilities{
		ID:                    AgentID,
		Name:                  "Digest",
		Description:           "Rolls up recent artifacts into a delivered digest",
		SupportedContentTypes: []string{"digest"},
		Features:              append([]string{"digest-assembly"}, methods...),
	}
}

// Process implements agent.Agent by reading the digest request fields
// from the request metadata. The scheduler path calls Run directly.
func (a *Agent) Process(ctx context.Context, req agent.Request) (*agent.Result, error) {
	return a.Run(ctx, requestFromMetadata(req.Metadata))
}

// Run assembles and delivers one digest. An empty period yields a
// "nothing new" message rather than silence, so recipients can tell
// delivery is alive.
func (a *Agent) Run(ctx context.Context, req Request) (*agent.Result, error) {
	if a.artifacts == nil {
		return agent.ErrorResult(fmt.Errorf("no artifact store configured")), nil
	}

	deliverer, ok := a.deliverers[req.DeliveryMethod]
	if !ok {
		return agent.ErrorResult(fmt.Errorf("no deliverer for method %q", req.DeliveryMethod)), nil
	}

	artifacts, err := a.artifacts.List(ctx, agent.ArtifactFilter{
		ContentTypes: req.ContentTypes,
		Tags:         req.Tags,
		Since:        time.Now().Add(-a.period),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return agent.ErrorResult(fmt.Errorf("list artifacts: %w", err)), nil
	}

	narrative, providersUsed, fallbackReason := a.narrative(ctx, req.DigestType, artifacts)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	subject := fmt.Sprintf("Your %s digest (%d items)", req.DigestType, len(artifacts))
	text := renderText(subject, narrative, artifacts)
	htmlBody := renderHTML(subject, narrative, artifacts)

	sendResult, err := deliverer.Send(ctx, delivery.Message{
		Recipient: req.Recipient,
		Subject:   subject,
		Text:      text,
		HTML:      htmlBody,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return agent.ErrorResult(fmt.Errorf("deliver digest: %w", err)), nil
	}
	if sendResult.Status != delivery.StatusSent {
		return agent.ErrorResult(fmt.Errorf("delivery failed: %s", sendResult.Message)), nil
	}

	a.logger.Info("Digest delivered",
		"digest_id", req.DigestID,
		"recipient", req.Recipient,
		"method", req.DeliveryMethod,
		"items", len(artifacts))

	artifact := &agent.Artifact{
		ContentType:   "digest",
		Title:         subject,
		FullText:      text,
		ProvidersUsed: providersUsed,
		Metadata: map[string]any{
			"digest_id":   req.DigestID,
			"digest_type": req.DigestType,
			"item_count":  len(artifacts),
			"message_id":  sendResult.MessageID,
		},
		ExtractedAt: time.Now().UTC(),
	}
	if fallbackReason != "" {
		artifact.FallbackReasons = map[string]string{model.TaskDigest.String(): fallbackReason}
	}

	return &agent.Result{Status: agent.StatusSuccess, Artifact: artifact}, nil
}

// narrative asks the router for a digest introduction over the item
// list. Degradation is fine; the item list carries the content.
func (a *Agent) narrative(ctx context.Context, digestType string, artifacts []*agent.Artifact) (string, map[string]*string, string) {
	if len(artifacts) == 0 {
		return "Nothing new this period.", nil, ""
	}

	var items strings.Builder
	for _, art := range artifacts {
		fmt.Fprintf(&items, "- %s: %s\n", art.Title, art.Summary)
	}

	result, err := a.router.Route(ctx, model.TaskDigest, map[string]any{
		"text":        items.String(),
		"digest_type": digestType,
	}, router.Requirements{})
	if err != nil {
		return "", nil, ""
	}

	provider := result.Provider
	providersUsed := map[string]*string{model.TaskDigest.String(): &provider}
	return result.Result, providersUsed, result.FallbackReason
}

// renderText renders the plain-text digest body.
func renderText(subject, narrative string, artifacts []*agent.Artifact) string {
	var b strings.Builder
	b.WriteString(subject + "\n\n")

	if narrative != "" {
		b.WriteString(narrative + "\n\n")
	}

	for _, art := range artifacts {
		fmt.Fprintf(&b, "* %s\n", art.Title)
		if art.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", art.Summary)
		}
		if art.Source != "" {
			fmt.Fprintf(&b, "  %s\n", art.Source)
		}
		if len(art.Tags) > 0 {
			fmt.Fprintf(&b, "  tags: %s\n", strings.Join(art.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// renderHTML renders the HTML digest body.
func renderHTML(subject, narrative string, artifacts []*agent.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(subject))

	if narrative != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(narrative))
	}

	b.WriteString("<ul>\n")
	for _, art := range artifacts {
		b.WriteString("<li>")
		if art.Source != "" {
			fmt.Fprintf(&b, "<a href=%q>%s</a>", art.Source, html.EscapeString(art.Title))
		} else {
			b.WriteString("<strong>" + html.EscapeString(art.Title) + "</strong>")
		}
		if art.Summary != "" {
			fmt.Fprintf(&b, "<br>%s", html.EscapeString(art.Summary))
		}
		if len(art.Tags) > 0 {
			fmt.Fprintf(&b, "<br><em>%s</em>", html.EscapeString(strings.Join(art.Tags, ", ")))
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
	return b.String()
}

// requestFromMetadata rebuilds a Request from generic metadata, for
// callers going through the agent contract instead of Run.
func requestFromMetadata(metadata map[string]any) Request {
	req := Request{}
	if metadata == nil {
		return req
	}

	str := func(key string) string {
		s, _ := metadata[key].(string)
		return s
	}
	req.DigestID = str("digest_id")
	req.DigestType = str("digest_type")
	req.Recipient = str("recipient")
	req.DeliveryMethod = str("delivery_method")
	req.ContentTypes = strSlice(metadata["content_types"])
	req.Tags = strSlice(metadata["tags"])
	return req
}

func strSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		var out []string
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
