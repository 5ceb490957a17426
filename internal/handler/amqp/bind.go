package amqp

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// DomainHandler turns a decoded bus payload into the envelope to broadcast.
// Returning a nil envelope acks the message without broadcasting.
type DomainHandler[T any] func(ctx context.Context, payload *T) (*event.Envelope, error)

// Bind connects watermill to domain logic, handling panic recovery,
// poison-safe decoding, and redelivery dedup.
func Bind[T any](h *MessageHandler, fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// Keep the consumer alive through handler panics.
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic recovered in amqp handler",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		// A redelivered copy of an already-broadcast message must not
		// re-toast every dashboard. Only successful handling marks the id.
		if h.dedup.Contains(msg.UUID) {
			return nil
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			h.logger.Error("undecodable bus payload", "err", err, "msg_id", msg.UUID)
			return nil // ACK: a poison pill never becomes deliverable.
		}

		env, err := fn(msg.Context(), payload)
		if err != nil {
			return err // NACK: business failure rides the retry policy.
		}
		if env == nil {
			h.dedup.Add(msg.UUID, struct{}{})
			return nil
		}

		delivered := h.hub.Broadcast(env)

		// Export the envelope on the notify exchange for downstream
		// consumers (audit trail, mobile push). Best effort: local
		// delivery already happened, so a failure here never nacks.
		if err := h.dispatcher.Publish(msg.Context(), env); err != nil {
			h.logger.Warn("notify export failed", "err", err, "msg_id", msg.UUID)
		}

		h.dedup.Add(msg.UUID, struct{}{})
		h.logger.Debug("envelope broadcast",
			"kind", env.Kind,
			"msg_id", msg.UUID,
			"sessions", delivered)

		return nil
	}
}
