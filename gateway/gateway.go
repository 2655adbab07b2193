// Package gateway classifies inbound messages and dispatches them to
// the agent that can process them.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/contentmind/agent"
	"github.com/c360studio/contentmind/errs"
	"github.com/c360studio/contentmind/metrics"
)

// Attachment is a file attached to an inbound message.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data,omitempty"`
}

// Ingress channels.
const (
	ChannelEmail     = "email"
	ChannelMessaging = "messaging"
)

// Message is an inbound message from an email-like or messaging-like
// ingress.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	From        string       `json:"from"`
	Subject     string       `json:"subject,omitempty"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReceivedAt  time.Time    `json:"received_at"`
}

// Gateway routes classified messages to agents.
type Gateway struct {
	agents  *agent.Registry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a gateway over the agent registry. Metrics may be nil.
func New(agents *agent.Registry, logger *slog.Logger, m *metrics.Metrics) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{agents: agents, logger: logger, metrics: m}
}

// Handle classifies a message and invokes the target agent.
func (g *Gateway) Handle(ctx context.Context, msg Message) (*agent.Result, error) {
	classified := Classify(msg)

	if g.metrics != nil {
		g.metrics.MessagesClassified.WithLabelValues(classified.ContentType).Inc()
	}

	g.logger.Info("Message classified",
		"from", msg.From,
		"content_type", classified.ContentType,
		"target", classified.TargetAgent)

	target, ok := g.agents.Get(classified.TargetAgent)
	if !ok {
		return nil, fmt.Errorf("%w: no live agent %q for content type %q",
			errs.ErrNotFound, classified.TargetAgent, classified.ContentType)
	}

	result, err := target.Process(ctx, agent.Request{
		ContentType: classified.ContentType,
		Content:     classified.Content,
		Metadata:    classified.Metadata,
	})
	if err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.AgentResults.WithLabelValues(classified.TargetAgent, result.Status).Inc()
	}
	return result, nil
}
