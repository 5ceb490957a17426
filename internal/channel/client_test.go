package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// wsServer is an in-process notification endpoint. The script runs once per
// accepted connection.
type wsServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	hits     atomic.Int64
	script   func(*websocket.Conn)

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newWSServer(t *testing.T, script func(*websocket.Conn)) *wsServer {
	t.Helper()
	s := &wsServer{script: script}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		if s.script != nil {
			s.script(conn)
		}
	}))
	t.Cleanup(func() {
		s.mu.Lock()
		for _, c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		s.srv.Close()
	})
	return s
}

func testConfig(origin string) Config {
	return Config{
		Origin:         origin,
		ProbeInterval:  10 * time.Millisecond,
		ReconnectDelay: 20 * time.Millisecond,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, kind event.Kind, payload any) {
	t.Helper()
	env, err := event.New(kind, payload)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func TestEnvelopeFanOutToSubscribers(t *testing.T) {
	done := make(chan struct{})
	s := newWSServer(t, func(conn *websocket.Conn) {
		writeEnvelope(t, conn, event.OrderCreated, event.OrderCreatedPayload{OrderID: "o-1", Customer: "B. Rivera"})
		<-done
	})
	defer close(done)

	c := NewClient(testConfig(s.srv.URL), discardLogger())
	defer c.Disconnect()

	gotA := make(chan event.Kind, 1)
	gotB := make(chan event.Kind, 1)
	c.Subscribe(func(env *event.Envelope) { gotA <- env.Kind })
	c.Subscribe(func(env *event.Envelope) { gotB <- env.Kind })

	c.Connect()

	for name, ch := range map[string]chan event.Kind{"A": gotA, "B": gotB} {
		select {
		case kind := <-ch:
			if kind != event.OrderCreated {
				t.Errorf("subscriber %s: got kind %q", name, kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the envelope", name)
		}
	}

	select {
	case kind := <-gotA:
		t.Errorf("subscriber A received an extra envelope: %q", kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMalformedFrameDoesNotCloseChannel(t *testing.T) {
	done := make(chan struct{})
	s := newWSServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("definitely not an envelope"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"mystery","data":{}}`))
		writeEnvelope(t, conn, event.TrackingUploaded, event.TrackingUploadedPayload{OrderID: "o-2", TrackingNumber: "TN1"})
		<-done
	})
	defer close(done)

	c := NewClient(testConfig(s.srv.URL), discardLogger())
	defer c.Disconnect()

	got := make(chan event.Kind, 4)
	c.Subscribe(func(env *event.Envelope) { got <- env.Kind })

	c.Connect()

	select {
	case kind := <-got:
		if kind != event.TrackingUploaded {
			t.Fatalf("malformed frame leaked to subscribers as %q", kind)
		}
	case <-time.After(time.Second):
		t.Fatal("well-formed envelope after garbage was never delivered")
	}

	if !c.IsConnected() {
		t.Error("channel closed on a malformed frame")
	}
}

func TestReconnectAfterUnexpectedClose(t *testing.T) {
	done := make(chan struct{})
	s := newWSServer(t, nil)
	s.script = func(conn *websocket.Conn) {
		if s.hits.Load() == 1 {
			_ = conn.Close() // abrupt server-side drop
			return
		}
		writeEnvelope(t, conn, event.ProductRegistered, event.ProductRegisteredPayload{ProductID: "p-9"})
		<-done
	}
	defer close(done)

	c := NewClient(testConfig(s.srv.URL), discardLogger())
	defer c.Disconnect()

	got := make(chan event.Kind, 1)
	c.Subscribe(func(env *event.Envelope) { got <- env.Kind })

	c.Connect()

	select {
	case kind := <-got:
		if kind != event.ProductRegistered {
			t.Errorf("got kind %q after reconnect", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never recovered from the unexpected close")
	}

	if hits := s.hits.Load(); hits < 2 {
		t.Errorf("expected an automatic second connection, got %d hits", hits)
	}
	waitFor(t, time.Second, c.IsConnected, "channel should be open after reconnect")
}

func TestReconnectBudgetIsBounded(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ReconnectDelay = 10 * time.Millisecond
	c := NewClient(cfg, discardLogger())

	c.Connect()

	// Initial dial plus five supervised attempts, then silence.
	waitFor(t, 2*time.Second, func() bool { return hits.Load() == 6 },
		"expected 6 dial attempts before the budget runs out")
	time.Sleep(100 * time.Millisecond)
	if got := hits.Load(); got != 6 {
		t.Fatalf("automatic attempts continued past the budget: %d dials", got)
	}
	if c.IsConnected() {
		t.Error("client should be disconnected")
	}
	if st := c.State(); st != Disconnected {
		t.Errorf("state: got %v, want Disconnected", st)
	}

	// The terminal state is recoverable only by an explicit Connect.
	c.Connect()
	waitFor(t, time.Second, func() bool { return hits.Load() >= 7 },
		"explicit Connect after exhaustion should dial again")
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	s := newWSServer(t, func(conn *websocket.Conn) {
		_ = conn.Close()
	})

	cfg := testConfig(s.srv.URL)
	cfg.ReconnectDelay = 100 * time.Millisecond
	c := NewClient(cfg, discardLogger())

	c.Connect()
	waitFor(t, time.Second, func() bool { return !c.IsConnected() },
		"server drop should be observed")

	// A reconnect is now pending; explicit teardown must cancel it.
	c.Disconnect()
	time.Sleep(300 * time.Millisecond)

	if got := s.hits.Load(); got != 1 {
		t.Errorf("a connect fired after Disconnect: %d hits", got)
	}
}

func TestProbeAnsweredThroughNormalDispatch(t *testing.T) {
	s := newWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == event.ProbeToken {
				writeEnvelope(t, conn, event.Pong, event.PongPayload{})
			}
		}
	})

	c := NewClient(testConfig(s.srv.URL), discardLogger())
	defer c.Disconnect()

	got := make(chan event.Kind, 8)
	c.Subscribe(func(env *event.Envelope) { got <- env.Kind })

	c.Connect()

	select {
	case kind := <-got:
		if kind != event.Pong {
			t.Errorf("got kind %q, want pong", kind)
		}
	case <-time.After(time.Second):
		t.Fatal("liveness reply never reached subscribers")
	}
}

func TestConnectWhileOpenIsNoOp(t *testing.T) {
	done := make(chan struct{})
	s := newWSServer(t, func(conn *websocket.Conn) { <-done })
	defer close(done)

	c := NewClient(testConfig(s.srv.URL), discardLogger())
	defer c.Disconnect()

	c.Connect()
	waitFor(t, time.Second, c.IsConnected, "first connect should open the channel")
	c.Connect()
	c.Connect()

	if got := s.hits.Load(); got != 1 {
		t.Errorf("redundant Connect calls dialed again: %d hits", got)
	}
}

func TestEndpointURLSchemeSubstitution(t *testing.T) {
	cases := []struct {
		origin string
		want   string
	}{
		{"http://api.orderpulse.local:8080", "ws://api.orderpulse.local:8080/api/notifications/ws"},
		{"https://api.orderpulse.io", "wss://api.orderpulse.io/api/notifications/ws"},
	}
	for _, tc := range cases {
		got, err := endpointURL(tc.origin, "/api/notifications/ws")
		if err != nil {
			t.Fatalf("%s: %v", tc.origin, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.origin, got, tc.want)
		}
	}

	if _, err := endpointURL("ftp://files.local", "/x"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
