// Package notify publishes a "message stored" event after every
// successful SendMessage, so other delivery nodes can invalidate caches —
// SPEC_FULL.md §4's optional fan-out notifier. Adapted from the teacher's
// internal/adapter/pubsub.EventDispatcher idiom (watermill.NewUUID +
// message.NewMessage + Publisher.Publish), generalized from a typed
// Eventer interface to this service's one event shape.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/chatrelay/chat-relay/internal/storage"
)

// StoredTopic is the topic a successful SendMessage publishes to.
const StoredTopic = "chatrelay.message.stored"

// StoredEvent is the payload published to StoredTopic.
type StoredEvent struct {
	UID    uint64   `json:"uid"`
	Sender string   `json:"sender"`
	To     []string `json:"to"`
	SendTS uint64   `json:"send_ts"`
}

// Notifier wraps a watermill message.Publisher.
type Notifier struct {
	publisher message.Publisher
}

// New wraps pub.
func New(pub message.Publisher) *Notifier {
	return &Notifier{publisher: pub}
}

// NewAMQP builds a Notifier backed by watermill-amqp/v3 against amqpURI,
// using the library's durable pub/sub config defaults.
func NewAMQP(amqpURI string, logger watermill.LoggerAdapter) (*Notifier, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pub, err := amqp.NewPublisher(amqp.NewDurablePubSubConfig(amqpURI, nil), logger)
	if err != nil {
		return nil, fmt.Errorf("notify: new amqp publisher: %w", err)
	}
	return New(pub), nil
}

// PublishStored publishes a StoredEvent for msg.
func (n *Notifier) PublishStored(ctx context.Context, msg storage.Message) error {
	ev := StoredEvent{UID: msg.UID, Sender: msg.Sender, To: msg.To, SendTS: msg.SendTS}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal stored event: %w", err)
	}

	wmsg := message.NewMessage(watermill.NewUUID(), payload)
	wmsg.SetContext(ctx)

	if err := n.publisher.Publish(StoredTopic, wmsg); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", StoredTopic, err)
	}
	return nil
}

// Close releases the underlying publisher's resources.
func (n *Notifier) Close() error { return n.publisher.Close() }

// SlogLogger adapts *slog.Logger to watermill.LoggerAdapter, so the
// amqp publisher's internal logging flows through the same structured
// JSON logger as the rest of the service.
type SlogLogger struct {
	log    *slog.Logger
	fields watermill.LogFields
}

// NewSlogLogger wraps log for use as NewAMQP's logger argument.
func NewSlogLogger(log *slog.Logger) SlogLogger {
	return SlogLogger{log: log}
}

func (l SlogLogger) attrs() []any {
	attrs := make([]any, 0, len(l.fields)*2)
	for k, v := range l.fields {
		attrs = append(attrs, k, v)
	}
	return attrs
}

func (l SlogLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error("notify: "+msg, append(l.attrs(), "error", err)...)
}

func (l SlogLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info("notify: "+msg, l.attrs()...)
}

func (l SlogLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug("notify: "+msg, l.attrs()...)
}

func (l SlogLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug("notify: "+msg, l.attrs()...)
}

func (l SlogLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return SlogLogger{log: l.log, fields: merged}
}
