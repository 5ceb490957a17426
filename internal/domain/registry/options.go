package registry

import "time"

// Option configures the Hub.
type Option func(*Hub)

// WithMailboxSize sets the buffer capacity of each session mailbox.
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		h.config.mailboxSize = size
	}
}

// WithSendTimeout bounds how long Broadcast waits on one saturated session
// before shedding the envelope for it.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.config.sendTimeout = d
	}
}
