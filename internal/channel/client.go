// Package channel maintains the dashboard's persistent notification
// connection: one logical WebSocket to the notify service, with liveness
// probing, bounded fixed-delay reconnection, and fan-out of decoded
// envelopes to registered subscribers.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// State is the connection lifecycle position, owned exclusively by the Client.
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Config tunes the channel client. Zero values fall back to the
// protocol defaults.
type Config struct {
	// Origin is the API origin, e.g. https://api.orderpulse.io. The channel
	// endpoint is derived by substituting http→ws / https→wss.
	Origin string
	// Path is the notification endpoint path on the origin.
	Path string

	ProbeInterval        time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	HandshakeTimeout     time.Duration
}

func (c *Config) defaults() {
	if c.Path == "" {
		c.Path = "/api/notifications/ws"
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = 30 * time.Second
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// Client owns at most one live connection regardless of subscriber count.
// Construct it once at the composition root and inject it wherever the
// presentation layer needs envelopes or connectivity state.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	registry *registry

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	cancelFn   context.CancelFunc // stops the prober of the current connection
	attempts   int                // reconnects since the last successful open
	retryTimer *time.Timer        // at most one pending reconnect
	closing    bool               // explicit teardown in progress
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.defaults()
	return &Client{
		cfg:      cfg,
		logger:   logger,
		registry: newRegistry(logger),
	}
}

// Subscribe registers fn for every decoded envelope and returns its
// unsubscribe capability. Safe to call in any connection state.
func (c *Client) Subscribe(fn Subscriber) func() {
	return c.registry.subscribe(fn)
}

// IsConnected reports whether the channel is open. Cheap enough for the
// presentation layer to poll every second.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Open
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the channel. A no-op while already open or connecting.
// Errors are not returned: a failed dial consumes one reconnect attempt
// and the supervisor schedules the next one.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.state == Open || c.state == Connecting {
		c.mu.Unlock()
		return
	}
	// An explicit Connect supersedes a pending reconnect timer so two
	// attempts never race.
	c.stopRetryLocked()
	c.closing = false
	c.state = Connecting
	c.mu.Unlock()

	endpoint, err := endpointURL(c.cfg.Origin, c.cfg.Path)
	if err != nil {
		c.logger.Error("channel endpoint invalid", "origin", c.cfg.Origin, "err", err)
		c.dialFailed()
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		c.logger.Warn("channel dial failed", "endpoint", endpoint, "err", err)
		c.dialFailed()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closing {
		// Disconnect arrived mid-dial; drop the fresh connection.
		c.state = Disconnected
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return
	}
	c.state = Open
	c.conn = conn
	c.cancelFn = cancel
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("channel open", "endpoint", endpoint)

	go c.readLoop(conn)
	go c.probeLoop(ctx, conn)
}

// Disconnect is the explicit teardown. It cancels any pending reconnect,
// stops the prober, and closes the connection. No automatic reconnection
// follows until Connect is called again.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	c.stopRetryLocked()
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
	conn := c.conn
	c.conn = nil
	if conn != nil {
		c.state = Closing
	} else {
		c.state = Disconnected
	}
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"), deadline)
		_ = conn.Close()

		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
	}

	c.logger.Info("channel disconnected")
}

// readLoop decodes inbound frames until the transport dies. Malformed
// frames are dropped; they never close the channel or reach subscribers.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.connClosed(conn, err)
			return
		}

		env, err := event.Decode(frame)
		if err != nil {
			c.logger.Warn("dropping malformed frame", "err", err)
			continue
		}

		c.registry.dispatch(env)
	}
}

// dialFailed treats a failed dial as an unexpected closure.
func (c *Client) dialFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Disconnected
	if c.closing {
		return
	}
	c.scheduleReconnectLocked()
}

// connClosed handles the transport signaling closure for conn. A loop
// belonging to a superseded connection is ignored.
func (c *Client) connClosed(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return
	}
	c.conn = nil
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
	c.state = Disconnected

	if c.closing {
		return
	}

	c.logger.Warn("channel closed unexpectedly", "err", cause)
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer, spending one
// attempt from the budget. With the budget exhausted the client stays
// Disconnected until an explicit Connect. The delay is fixed; recovery
// deliberately has no exponential backoff.
func (c *Client) scheduleReconnectLocked() {
	if c.retryTimer != nil {
		return
	}
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.logger.Error("reconnect budget exhausted, staying disconnected",
			"attempts", c.attempts)
		return
	}
	c.attempts++
	c.logger.Info("reconnect scheduled",
		"attempt", c.attempts,
		"max", c.cfg.MaxReconnectAttempts,
		"delay", c.cfg.ReconnectDelay)

	c.retryTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		closing := c.closing
		c.mu.Unlock()
		if closing {
			return
		}
		c.Connect()
	})
}

func (c *Client) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// endpointURL derives the channel endpoint from the API origin by scheme
// substitution: http→ws, https→wss.
func endpointURL(origin, path string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("channel: parse origin: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("channel: unsupported origin scheme %q", u.Scheme)
	}
	u.Path = path
	return u.String(), nil
}
