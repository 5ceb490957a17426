package amqp

import (
	"context"

	"github.com/orderpulse/notify-service/internal/domain/event"
	"github.com/orderpulse/notify-service/internal/service/dto"
)

func (h *MessageHandler) OnOrderCreatedV1(ctx context.Context, raw *dto.OrderCreatedV1) (*event.Envelope, error) {
	return event.New(event.OrderCreated, raw.ToPayload())
}

func (h *MessageHandler) OnOrderUpdatedV1(ctx context.Context, raw *dto.OrderUpdatedV1) (*event.Envelope, error) {
	return event.New(event.OrderUpdated, raw.ToPayload())
}

func (h *MessageHandler) OnTrackingUploadedV1(ctx context.Context, raw *dto.TrackingUploadedV1) (*event.Envelope, error) {
	return event.New(event.TrackingUploaded, raw.ToPayload())
}

func (h *MessageHandler) OnProductRegisteredV1(ctx context.Context, raw *dto.ProductRegisteredV1) (*event.Envelope, error) {
	return event.New(event.ProductRegistered, raw.ToPayload())
}

// OnPriceAlertV1 drops alerts where the price did not actually fall; the
// sourcing watcher occasionally republishes unchanged prices.
func (h *MessageHandler) OnPriceAlertV1(ctx context.Context, raw *dto.PriceAlertV1) (*event.Envelope, error) {
	if raw.NewPrice >= raw.OldPrice {
		h.logger.Debug("ignoring non-drop price alert", "product_id", raw.ProductID)
		return nil, nil
	}
	return event.New(event.PriceAlert, raw.ToPayload())
}
