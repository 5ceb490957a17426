package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/orderpulse/notify-service/internal/domain/event"
)

func newEnvelope(t *testing.T) *event.Envelope {
	t.Helper()
	env, err := event.New(event.OrderCreated, event.OrderCreatedPayload{OrderID: "o-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func TestBroadcastReachesEverySession(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	a := NewSession(ctx, 8)
	b := NewSession(ctx, 8)
	h.Register(a)
	h.Register(b)
	defer h.Shutdown()

	env := newEnvelope(t)
	if got := h.Broadcast(env); got != 2 {
		t.Fatalf("delivered: got %d, want 2", got)
	}

	for name, s := range map[string]Sessioner{"a": a, "b": b} {
		select {
		case got := <-s.Recv():
			if got.Kind != event.OrderCreated {
				t.Errorf("session %s: kind %q", name, got.Kind)
			}
		default:
			t.Errorf("session %s: mailbox empty", name)
		}
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	a := NewSession(ctx, 8)
	b := NewSession(ctx, 8)
	h.Register(a)
	h.Register(b)
	defer h.Shutdown()

	h.Unregister(a.GetID())

	if got := h.Broadcast(newEnvelope(t)); got != 1 {
		t.Errorf("delivered: got %d, want 1", got)
	}
	if got := h.SessionCount(); got != 1 {
		t.Errorf("session count: got %d, want 1", got)
	}
}

func TestSaturatedSessionShedsEnvelope(t *testing.T) {
	h := NewHub(WithSendTimeout(5 * time.Millisecond))
	ctx := context.Background()

	s := NewSession(ctx, 1)
	h.Register(s)
	defer h.Shutdown()

	env := newEnvelope(t)
	if got := h.Broadcast(env); got != 1 {
		t.Fatalf("first broadcast: delivered %d", got)
	}
	// Mailbox is full now; the next broadcast must time out and drop,
	// not stall the hub.
	if got := h.Broadcast(env); got != 0 {
		t.Errorf("saturated session accepted envelope: delivered %d", got)
	}
	if got := s.Dropped(); got != 1 {
		t.Errorf("dropped counter: got %d, want 1", got)
	}
}

func TestSendRacingCloseNeverPanics(t *testing.T) {
	env := newEnvelope(t)

	for i := 0; i < 200; i++ {
		s := NewSession(context.Background(), 1)
		s.Send(env, time.Millisecond) // saturate the mailbox

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Send(env, time.Millisecond)
			}()
		}
		s.Close()
		wg.Wait()

		if s.Send(env, time.Millisecond) {
			t.Fatal("send accepted after close")
		}
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := NewSession(context.Background(), 1)
	s.Close()
	s.Close() // second call must not panic or corrupt the pool

	env, err := event.New(event.Pong, event.PongPayload{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if s.Send(env, time.Millisecond) {
		t.Error("send after close should fail")
	}
}
