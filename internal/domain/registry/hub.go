/*
Package registry distributes notification envelopes to connected dashboard
sessions.

Unlike per-user routed delivery, OrderPulse notifications are operational:
every envelope goes to every open dashboard session (a small reselling team
watching the same order stream). The hub therefore keeps a flat session
registry with lock-free lookups via sync.Map, buffered per-session mailboxes
as shock absorbers, and send-timeout shedding so one stalled socket never
holds back the rest.
*/
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// Hubber is the gateway transports and ingestion handlers use.
type Hubber interface {
	Broadcast(env *event.Envelope) int
	Register(s Sessioner)
	Unregister(id uuid.UUID)
	SessionCount() int
	Shutdown()
}

type hubConfig struct {
	mailboxSize int
	sendTimeout time.Duration
}

// Hub implements Hubber over a flat session registry.
type Hub struct {
	// sessions stores Map[uuid.UUID]Sessioner. Broadcast-heavy, so reads
	// dominate writes.
	sessions sync.Map
	count    int
	countMu  sync.Mutex
	config   hubConfig
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		config: hubConfig{
			mailboxSize: 256,
			sendTimeout: 500 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MailboxSize exposes the configured per-session buffer for the service
// layer creating sessions.
func (h *Hub) MailboxSize() int { return h.config.mailboxSize }

// Broadcast fans env out to every registered session and returns how many
// accepted it. Saturated sessions shed the envelope (counted per session).
func (h *Hub) Broadcast(env *event.Envelope) int {
	delivered := 0
	h.sessions.Range(func(_, val any) bool {
		if s, ok := val.(Sessioner); ok {
			if s.Send(env, h.config.sendTimeout) {
				delivered++
			}
		}
		return true
	})
	return delivered
}

// Register attaches a session to the broadcast set.
func (h *Hub) Register(s Sessioner) {
	h.sessions.Store(s.GetID(), s)
	h.countMu.Lock()
	h.count++
	h.countMu.Unlock()
}

// Unregister removes and closes the session when its transport ends.
func (h *Hub) Unregister(id uuid.UUID) {
	if val, ok := h.sessions.LoadAndDelete(id); ok {
		if s, ok := val.(Sessioner); ok {
			s.Close()
		}
		h.countMu.Lock()
		h.count--
		h.countMu.Unlock()
	}
}

// SessionCount reports how many sessions are currently attached.
func (h *Hub) SessionCount() int {
	h.countMu.Lock()
	defer h.countMu.Unlock()
	return h.count
}

// Shutdown closes every session during process teardown.
func (h *Hub) Shutdown() {
	h.sessions.Range(func(key, val any) bool {
		if s, ok := val.(Sessioner); ok {
			s.Close()
		}
		h.sessions.Delete(key)
		return true
	})
	h.countMu.Lock()
	h.count = 0
	h.countMu.Unlock()
}
