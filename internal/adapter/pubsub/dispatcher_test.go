package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

type fakePublisher struct {
	topic string
	msgs  []*message.Message
	err   error
}

func (p *fakePublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.msgs = append(p.msgs, messages...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestPublishRoutesByKind(t *testing.T) {
	pub := &fakePublisher{}
	d := NewEventDispatcher(pub)

	env, err := event.New(event.OrderCreated, event.OrderCreatedPayload{OrderID: "o-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if err := d.Publish(context.Background(), env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if pub.topic != "op_notify.order_created.v1" {
		t.Errorf("topic = %q, want op_notify.order_created.v1", pub.topic)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}

	var round event.Envelope
	if err := json.Unmarshal(pub.msgs[0].Payload, &round); err != nil {
		t.Fatalf("payload is not an envelope: %v", err)
	}
	if round.Kind != event.OrderCreated {
		t.Errorf("kind = %q, want %q", round.Kind, event.OrderCreated)
	}
}

func TestPublishRejectsNilEnvelope(t *testing.T) {
	d := NewEventDispatcher(&fakePublisher{})
	if err := d.Publish(context.Background(), nil); err == nil {
		t.Error("nil envelope accepted")
	}
}

func TestPublishPropagatesPublisherError(t *testing.T) {
	wantErr := errors.New("connection refused")
	d := NewEventDispatcher(&fakePublisher{err: wantErr})

	env, err := event.New(event.Pong, event.PongPayload{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if err := d.Publish(context.Background(), env); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}
