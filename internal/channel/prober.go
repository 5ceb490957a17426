package channel

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// probeLoop writes the bare probe token on a fixed period while the
// connection stays open. The server's reply is a Pong-kind envelope that
// flows through normal dispatch; the prober never intercepts it.
//
// A missing reply does not force a reconnect on its own: dead-connection
// detection relies on the transport's close/error signaling.
func (c *Client) probeLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(event.ProbeToken)); err != nil {
				// The read loop will observe the dead transport and run
				// the reconnect path; nothing more to do here.
				c.logger.Warn("liveness probe write failed", "err", err)
				return
			}
		}
	}
}
