// Package poller is the pull path: an interval-driven loop that fetches
// recent-order snapshots from the REST boundary, diffs the identifier set
// against the previous tick's baseline, and synthesizes "new order"
// notifications for anything not seen before. It is independent of the push
// channel and keeps working when the channel is down.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orderpulse/notify-service/internal/orders"
)

// Fetcher supplies the recent-order snapshot for one tick.
type Fetcher interface {
	Recent(ctx context.Context, window time.Duration) (*orders.Snapshot, error)
}

// Notifier receives the synthesized new-order notifications. Implementations
// render toasts, badges, or terminal feed lines.
type Notifier interface {
	NewOrder(o orders.Order)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(o orders.Order)

func (f NotifierFunc) NewOrder(o orders.Order) { f(o) }

// Config tunes the poller. Zero values fall back to defaults.
type Config struct {
	Interval time.Duration
	Window   time.Duration
}

func (c *Config) defaults() {
	if c.Interval == 0 {
		c.Interval = 30 * time.Second
	}
	if c.Window == 0 {
		c.Window = 30 * time.Minute
	}
}

// Status is the presentation-facing view of the poller.
type Status struct {
	Recent    []orders.Order
	NewCount  int
	Checking  bool
	LastCheck time.Time
	Err       string // last fetch failure, empty after a successful tick
}

// Poller owns its baseline exclusively; independent pollers never share one.
type Poller struct {
	cfg    Config
	fetch  Fetcher
	notify Notifier
	logger *slog.Logger

	group singleflight.Group
	ctx   context.Context // run context; guards commits after teardown

	mu        sync.Mutex
	baseline  map[string]struct{}
	recent    []orders.Order
	newCount  int
	checking  bool
	lastCheck time.Time
	lastErr   string
}

func New(cfg Config, fetch Fetcher, notify Notifier, logger *slog.Logger) *Poller {
	cfg.defaults()
	return &Poller{
		cfg:      cfg,
		fetch:    fetch,
		notify:   notify,
		logger:   logger,
		ctx:      context.Background(),
		baseline: make(map[string]struct{}),
	}
}

// Run drives the tick loop until ctx is cancelled. The first check fires
// immediately and only seeds the baseline; it reports nothing as new.
func (p *Poller) Run(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	p.runCheck()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCheck()
		}
	}
}

// CheckNow triggers a check outside the schedule. Manual and scheduled
// triggers share one execution path: a trigger arriving while a check is in
// flight joins that check instead of starting a second fetch.
func (p *Poller) CheckNow() {
	p.runCheck()
}

// Snapshot returns the current presentation view.
func (p *Poller) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	recent := make([]orders.Order, len(p.recent))
	copy(recent, p.recent)
	return Status{
		Recent:    recent,
		NewCount:  p.newCount,
		Checking:  p.checking,
		LastCheck: p.lastCheck,
		Err:       p.lastErr,
	}
}

// ResetNewCount clears the running counter, e.g. when the operator opens
// the orders page and the badge is acknowledged.
func (p *Poller) ResetNewCount() {
	p.mu.Lock()
	p.newCount = 0
	p.mu.Unlock()
}

func (p *Poller) runCheck() {
	_, _, _ = p.group.Do("check", func() (any, error) {
		p.check()
		return nil, nil
	})
}

func (p *Poller) check() {
	p.mu.Lock()
	ctx := p.ctx
	p.checking = true
	p.mu.Unlock()

	snap, err := p.fetch.Recent(ctx, p.cfg.Window)

	// Teardown guard: a fetch that completes after the owner is gone must
	// not mutate state.
	if ctx.Err() != nil {
		p.mu.Lock()
		p.checking = false
		p.mu.Unlock()
		return
	}

	if err != nil {
		p.logger.Warn("recent-orders check failed", "err", err)
		p.mu.Lock()
		p.checking = false
		p.lastErr = err.Error()
		// Baseline stays exactly as it was; the next tick retries.
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	var fresh []orders.Order
	seeded := len(p.baseline) > 0
	current := make(map[string]struct{}, len(snap.Orders))
	for _, o := range snap.Orders {
		current[o.ID] = struct{}{}
		if seeded {
			if _, seen := p.baseline[o.ID]; !seen {
				fresh = append(fresh, o)
			}
		}
	}
	p.baseline = current
	p.recent = snap.Orders
	p.newCount += len(fresh)
	p.lastCheck = snap.CheckedAt
	p.lastErr = ""
	p.checking = false
	p.mu.Unlock()

	for _, o := range fresh {
		p.logger.Info("new order detected",
			"order_id", o.ID, "marketplace", o.Marketplace, "total", o.TotalAmount)
		p.notify.NewOrder(o)
	}
}
