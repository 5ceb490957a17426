package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderpulse/notify-service/internal/domain/registry"
)

// Deliverer is the primary interface for transport handlers. It decouples
// socket lifecycles from the hub's registry.
type Deliverer interface {
	Subscribe(ctx context.Context) (registry.Sessioner, error)
	Unsubscribe(id uuid.UUID)
}

type DeliveryService struct {
	hub         registry.Hubber
	mailboxSize int
}

func NewDeliveryService(hub *registry.Hub) *DeliveryService {
	return &DeliveryService{
		hub:         hub,
		mailboxSize: hub.MailboxSize(),
	}
}

// Subscribe creates a session bound to the transport's context and attaches
// it to the broadcast set. The transport pumps Recv until it ends.
func (s *DeliveryService) Subscribe(ctx context.Context) (registry.Sessioner, error) {
	sess := registry.NewSession(ctx, s.mailboxSize)
	s.hub.Register(sess)
	return sess, nil
}

// Unsubscribe detaches and closes the session; the hub recycles it.
func (s *DeliveryService) Unsubscribe(id uuid.UUID) {
	s.hub.Unregister(id)
}
