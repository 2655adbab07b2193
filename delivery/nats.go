package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// Stream configuration for outbound deliveries.
const (
	StreamName    = "DELIVERY"
	subjectPrefix = "delivery."
)

// outbound is the wire form published for downstream channel workers
// (SMTP bridge, WhatsApp bridge) to consume.
type outbound struct {
	MessageID string    `json:"message_id"`
	Method    string    `json:"method"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	HTML      string    `json:"html,omitempty"`
	Text      string    `json:"text"`
	QueuedAt  time.Time `json:"queued_at"`
}

// NATSPublisher queues deliveries on a JetStream stream. Actual channel
// transmission is done by workers consuming the stream, which gives the
// at-least-once semantics the delivery contract requires.
type NATSPublisher struct {
	js     jetstream.JetStream
	method string
	logger *slog.Logger
}

// NewNATSPublisher creates a publisher for one delivery method,
// ensuring the delivery stream exists.
func NewNATSPublisher(ctx context.Context, js jetstream.JetStream, method string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{subjectPrefix + ">"},
		Storage:  jetstream.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure delivery stream: %w", err)
	}

	return &NATSPublisher{js: js, method: method, logger: logger}, nil
}

// Method implements Deliverer.
func (p *NATSPublisher) Method() string {
	return p.method
}

// Send publishes the message to the delivery stream.
func (p *NATSPublisher) Send(ctx context.Context, msg Message) (*Result, error) {
	out := outbound{
		MessageID: uuid.New().String(),
		Method:    p.method,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		HTML:      msg.HTML,
		Text:      msg.Text,
		QueuedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal delivery: %w", err)
	}

	if _, err := p.js.Publish(ctx, subjectPrefix+p.method, data); err != nil {
		return &Result{Status: StatusError, Message: err.Error()}, nil
	}

	p.logger.Info("Delivery queued",
		"method", p.method,
		"recipient", msg.Recipient,
		"message_id", out.MessageID)

	return &Result{Status: StatusSent, MessageID: out.MessageID}, nil
}
