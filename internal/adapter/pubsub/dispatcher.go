package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// EventDispatcher is the outgoing side of the bus: it exports handled
// envelopes on the notify exchange, where downstream consumers (audit
// trail, mobile push) subscribe, and lends its publisher to the
// poison-queue middleware.
type EventDispatcher interface {
	Publish(ctx context.Context, env *event.Envelope) error
	Publisher() message.Publisher
}

type eventDispatcher struct {
	publisher message.Publisher
}

func NewEventDispatcher(pub message.Publisher) EventDispatcher {
	return &eventDispatcher{publisher: pub}
}

// routingKey maps an envelope kind to its bus topic.
func routingKey(kind event.Kind) string {
	return fmt.Sprintf("op_notify.%s.v1", kind)
}

func (d *eventDispatcher) Publish(ctx context.Context, env *event.Envelope) error {
	if env == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil envelope")
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	topic := routingKey(env.Kind)
	if err := d.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("event dispatcher: failed to publish to topic %s: %w", topic, err)
	}

	return nil
}

func (d *eventDispatcher) Publisher() message.Publisher {
	return d.publisher
}
