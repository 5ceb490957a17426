// Package dto holds the wire shapes marketplace integrations publish on the
// bus, kept separate from the notification envelope payloads so bus schema
// churn never leaks onto the channel.
package dto

import (
	"time"

	"github.com/orderpulse/notify-service/internal/domain/event"
)

// OrderCreatedV1 is the bus schema for a freshly imported order.
type OrderCreatedV1 struct {
	OrderID      string    `json:"order_id"`
	Marketplace  string    `json:"marketplace"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  float64   `json:"total_amount"`
	OrderedAt    time.Time `json:"ordered_at"`
}

func (d *OrderCreatedV1) ToPayload() event.OrderCreatedPayload {
	return event.OrderCreatedPayload{
		OrderID:     d.OrderID,
		Marketplace: d.Marketplace,
		Customer:    d.CustomerName,
		TotalAmount: d.TotalAmount,
		OrderedAt:   d.OrderedAt,
	}
}

// OrderUpdatedV1 is the bus schema for an order status change.
type OrderUpdatedV1 struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (d *OrderUpdatedV1) ToPayload() event.OrderUpdatedPayload {
	return event.OrderUpdatedPayload{OrderID: d.OrderID, Status: d.Status}
}

// TrackingUploadedV1 is the bus schema for a tracking number upload.
type TrackingUploadedV1 struct {
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

func (d *TrackingUploadedV1) ToPayload() event.TrackingUploadedPayload {
	return event.TrackingUploadedPayload{
		OrderID:        d.OrderID,
		TrackingNumber: d.TrackingNumber,
		Carrier:        d.Carrier,
	}
}
