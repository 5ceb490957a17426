package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the event family carried by an Envelope.
type Kind string

// Business kinds carry marketplace news; Pong is channel-internal traffic.
const (
	OrderCreated      Kind = "order_created"
	OrderUpdated      Kind = "order_updated"
	TrackingUploaded  Kind = "tracking_uploaded"
	ProductRegistered Kind = "product_registered"
	PriceAlert        Kind = "price_alert"
	Pong              Kind = "pong"
)

// ProbeToken is the literal liveness probe a client writes on the channel.
// It is sent bare, with no envelope wrapping; the server answers with a
// Pong-kind envelope through the normal delivery path.
const ProbeToken = "ping"

var kinds = map[Kind]struct{}{
	OrderCreated:      {},
	OrderUpdated:      {},
	TrackingUploaded:  {},
	ProductRegistered: {},
	PriceAlert:        {},
	Pong:              {},
}

// Valid reports whether k belongs to the closed kind set.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Envelope is the unit transmitted over the notification channel.
// The payload stays opaque to the channel layer; only subscribers
// interpret it, keyed by Kind.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// New builds an envelope around payload, stamped with the current time.
func New(kind Kind, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s payload: %w", kind, err)
	}
	return &Envelope{
		Kind:      kind,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode parses one inbound frame into an Envelope.
// Every frame must decode to exactly one envelope or be discarded by the
// caller; an unknown kind is a decode failure, not a crash.
func Decode(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("event: decode frame: %w", err)
	}
	if !env.Kind.Valid() {
		return nil, fmt.Errorf("event: unknown kind %q", env.Kind)
	}
	return &env, nil
}

// Payload decodes the envelope data into dst.
func (e *Envelope) Payload(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("event: decode %s payload: %w", e.Kind, err)
	}
	return nil
}
