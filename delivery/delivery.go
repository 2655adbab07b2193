package delivery

import (
	"context"
	"strings"
	"sync"
)

// Delivery methods.
const (
	MethodEmail    = "email"
	MethodWhatsApp = "whatsapp"
)

// Result statuses.
const (
	StatusSent  = "sent"
	StatusError = "error"
)

// Message is one outbound delivery. Text is always set; HTML is an
// optional richer rendering for channels that support it.
type Message struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	HTML      string `json:"html,omitempty"`
	Text      string `json:"text"`
}

// Result reports the outcome of a send.
type Result struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Deliverer sends messages over one channel. Semantics are
// at-least-once; consumers must tolerate duplicates.
type Deliverer interface {
	Method() string
	Send(ctx context.Context, msg Message) (*Result, error)
}

// DetectMethod infers the delivery method from the recipient shape:
// an address containing @ is email, anything else is whatsapp.
func DetectMethod(recipient string) string {
	if strings.Contains(recipient, "@") {
		return MethodEmail
	}
	return MethodWhatsApp
}

// Capture is an in-memory Deliverer for tests. It records every
// message and can be told to fail.
type Capture struct {
	method string

	mu       sync.Mutex
	messages []Message
	fail     bool
}

// NewCapture creates a capture deliverer for the given method.
func NewCapture(method string) *Capture {
	return &Capture{method: method}
}

// Method implements Deliverer.
func (c *Capture) Method() string {
	return c.method
}

// Send records the message.
func (c *Capture) Send(ctx context.Context, msg Message) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return &Result{Status: StatusError, Message: "capture deliverer set to fail"}, nil
	}
	c.messages = append(c.messages, msg)
	return &Result{Status: StatusSent, MessageID: "capture"}, nil
}

// Messages returns the recorded messages.
func (c *Capture) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetFail toggles failure mode.
func (c *Capture) SetFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}
