package dto

import "github.com/orderpulse/notify-service/internal/domain/event"

// ProductRegisteredV1 is the bus schema for a product added to the catalog.
type ProductRegisteredV1 struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
}

func (d *ProductRegisteredV1) ToPayload() event.ProductRegisteredPayload {
	return event.ProductRegisteredPayload{ProductID: d.ProductID, Title: d.Title}
}

// PriceAlertV1 is the bus schema for a sourcing-price threshold crossing.
type PriceAlertV1 struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
}

func (d *PriceAlertV1) ToPayload() event.PriceAlertPayload {
	return event.PriceAlertPayload{
		ProductID: d.ProductID,
		Title:     d.Title,
		OldPrice:  d.OldPrice,
		NewPrice:  d.NewPrice,
	}
}
