package channel

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// Subscriber receives every envelope decoded off the channel, including the
// liveness Pong replies. Callbacks run on the read loop, in frame order.
type Subscriber func(*event.Envelope)

// registry is the fan-out point between the channel and its consumers.
// Subscribers never touch the connection; they only see envelopes.
type registry struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]Subscriber
}

func newRegistry(logger *slog.Logger) *registry {
	return &registry{
		logger: logger,
		subs:   make(map[uuid.UUID]Subscriber),
	}
}

// subscribe registers fn and returns a capability that deregisters exactly
// this registration. Calling it more than once is a no-op.
func (r *registry) subscribe(fn Subscriber) func() {
	id := uuid.New()

	r.mu.Lock()
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// dispatch invokes every callback registered at this moment with env.
// A panicking callback is contained and logged; delivery to the remaining
// callbacks proceeds. No ordering is guaranteed between subscribers.
func (r *registry) dispatch(env *event.Envelope) {
	r.mu.Lock()
	snapshot := make([]Subscriber, 0, len(r.subs))
	for _, fn := range r.subs {
		snapshot = append(snapshot, fn)
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		r.invoke(fn, env)
	}
}

func (r *registry) invoke(fn Subscriber, env *event.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber panicked",
				"kind", env.Kind,
				"err", rec,
				"stack", string(debug.Stack()))
		}
	}()
	fn(env)
}
