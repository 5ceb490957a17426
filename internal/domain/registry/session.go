package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orderpulse/notify-service/internal/domain/event"
)

// Interface guard
var _ Sessioner = (*session)(nil)

// Sessioner is the hub's view of one connected dashboard session. The
// transport handler pumps Recv into its socket; the hub pushes via Send.
type Sessioner interface {
	GetID() uuid.UUID
	Send(env *event.Envelope, timeout time.Duration) bool
	Recv() <-chan *event.Envelope
	Dropped() uint64
	Close()
}

// session is the concrete implementation, unexported to force interface
// usage by transports.
type session struct {
	id        uuid.UUID
	createdAt time.Time
	ctx       context.Context
	cancelFn  context.CancelFunc
	sendCh    chan *event.Envelope
	closeOnce sync.Once
	dropped   uint64 // atomic

	// mu orders Send against Close: the mailbox is only closed with the
	// write lock held, so no sender can race the close and panic. Senders
	// hold the read lock for at most one send timeout.
	mu     sync.RWMutex
	closed bool
}

// sessionPool recycles session structs between connections to keep GC
// pressure flat under dashboard reload storms.
var sessionPool = sync.Pool{
	New: func() any {
		return &session{}
	},
}

// NewSession builds a session with a buffered mailbox that decouples hub
// broadcast from individual socket write latency.
func NewSession(ctx context.Context, bufferSize int) Sessioner {
	s := sessionPool.Get().(*session)
	s.reset(ctx, bufferSize)
	return s
}

// reset wipes pooled state with a struct literal so stale fields and the
// sync.Once guard never leak between connections.
func (s *session) reset(ctx context.Context, bufferSize int) {
	childCtx, cancel := context.WithCancel(ctx)
	*s = session{
		id:        uuid.New(),
		createdAt: time.Now(),
		ctx:       childCtx,
		cancelFn:  cancel,
		sendCh:    make(chan *event.Envelope, bufferSize),
	}
}

func (s *session) GetID() uuid.UUID { return s.id }

// Send enqueues env into the session mailbox, waiting up to timeout for
// space. A session that stays saturated for the whole window drops the
// envelope rather than stalling the hub. Send on a closed session is a
// safe no-op.
func (s *session) Send(env *event.Envelope, timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-s.ctx.Done():
		return false
	case s.sendCh <- env:
		return true
	case <-ctx.Done():
		atomic.AddUint64(&s.dropped, 1)
		return false
	}
}

func (s *session) Recv() <-chan *event.Envelope { return s.sendCh }

// Dropped returns how many envelopes this session shed under saturation.
func (s *session) Dropped() uint64 { return atomic.LoadUint64(&s.dropped) }

// Close terminates the session exactly once and recycles the struct.
// It may be called concurrently by the hub (shutdown), the transport
// handler (defer), or the eviction of a dead socket.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cancelFn()
		// Signals the transport pump (via !ok) to exit gracefully.
		close(s.sendCh)
		s.mu.Unlock()

		sessionPool.Put(s)
	})
}
