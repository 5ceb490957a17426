package event

import "time"

// OrderCreatedPayload announces an order freshly pulled from a marketplace.
type OrderCreatedPayload struct {
	OrderID     string    `json:"order_id"`
	Marketplace string    `json:"marketplace"`
	Customer    string    `json:"customer"`
	TotalAmount float64   `json:"total_amount"`
	OrderedAt   time.Time `json:"ordered_at"`
}

// OrderUpdatedPayload announces a status change on a known order.
type OrderUpdatedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// TrackingUploadedPayload announces a tracking number attached to an order.
type TrackingUploadedPayload struct {
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// ProductRegisteredPayload announces a product added to the catalog.
type ProductRegisteredPayload struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
}

// PriceAlertPayload announces a sourcing price crossing its alert threshold.
type PriceAlertPayload struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
}

// PongPayload is the server's reply to the liveness probe token.
type PongPayload struct{}
