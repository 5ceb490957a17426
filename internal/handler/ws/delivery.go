package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orderpulse/notify-service/internal/domain/event"
	"github.com/orderpulse/notify-service/internal/service"
)

// WSHandler serves the notification channel endpoint the dashboard keeps
// open: envelopes flow out, the bare liveness probe token flows in.
type WSHandler struct {
	logger    *slog.Logger
	deliverer service.Deliverer
	upgrader  websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, deliverer service.Deliverer) *WSHandler {
	return &WSHandler{
		logger:    logger,
		deliverer: deliverer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, err := h.deliverer.Subscribe(r.Context())
	if err != nil {
		return
	}
	defer h.deliverer.Unsubscribe(sess.GetID())

	h.logger.Info("dashboard session opened", "session_id", sess.GetID())

	// Inbound side: the only expected client traffic is the probe token.
	// Anything else is ignored; a read error ends the session.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && string(msg) == event.ProbeToken {
				pong, err := event.New(event.Pong, event.PongPayload{})
				if err != nil {
					continue
				}
				// Reply only to the probing session, through its mailbox,
				// so the pong rides the same delivery path as every event.
				sess.Send(pong, time.Second)
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readDone:
			return
		case env, ok := <-sess.Recv():
			if !ok {
				return
			}

			data, err := json.Marshal(env)
			if err != nil {
				h.logger.Error("failed to marshal envelope", "error", err)
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("ws send failed", "error", err)
				return
			}
		}
	}
}
