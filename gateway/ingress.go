package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Ingress subjects.
const (
	SubjectEmail     = "ingest.email"
	SubjectMessaging = "ingest.message"
)

// Ingress subscribes to the NATS ingest subjects and feeds decoded
// messages into the gateway. Channel bridges (IMAP poller, WhatsApp
// webhook) publish onto these subjects.
type Ingress struct {
	nc      *nats.Conn
	gateway *Gateway
	logger  *slog.Logger

	subs []*nats.Subscription
}

// NewIngress creates an ingress over an established NATS connection.
func NewIngress(nc *nats.Conn, gw *Gateway, logger *slog.Logger) *Ingress {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingress{nc: nc, gateway: gw, logger: logger}
}

// Start subscribes to both ingest subjects. Each message is handled in
// its own goroutine bounded by the given per-message timeout.
func (i *Ingress) Start(ctx context.Context, perMessageTimeout time.Duration) error {
	if perMessageTimeout <= 0 {
		perMessageTimeout = 5 * time.Minute
	}

	for subject, channel := range map[string]string{
		SubjectEmail:     ChannelEmail,
		SubjectMessaging: ChannelMessaging,
	} {
		channel := channel
		sub, err := i.nc.Subscribe(subject, func(m *nats.Msg) {
			go i.handle(ctx, channel, m, perMessageTimeout)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		i.subs = append(i.subs, sub)
	}

	i.logger.Info("Ingress started",
		"subjects", []string{SubjectEmail, SubjectMessaging})
	return nil
}

// Stop drains the subscriptions.
func (i *Ingress) Stop() {
	for _, sub := range i.subs {
		if err := sub.Drain(); err != nil {
			i.logger.Warn("Ingress drain failed", "error", err)
		}
	}
	i.subs = nil
}

func (i *Ingress) handle(ctx context.Context, channel string, m *nats.Msg, timeout time.Duration) {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		i.logger.Warn("Dropping unparsable ingress message",
			"subject", m.Subject,
			"error", err)
		return
	}
	if msg.Channel == "" {
		msg.Channel = channel
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	msgCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := i.gateway.Handle(msgCtx, msg)
	if err != nil {
		i.logger.Error("Ingress message handling failed",
			"channel", msg.Channel,
			"from", msg.From,
			"error", err)
		return
	}

	// Reply with the result when the publisher asked for one.
	if m.Reply != "" {
		data, err := json.Marshal(result)
		if err == nil {
			if err := m.Respond(data); err != nil {
				i.logger.Warn("Ingress reply failed", "error", err)
			}
		}
	}
}
