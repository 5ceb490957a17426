// Package monitor renders the operator-facing terminal dashboard: live
// connection state, the notification feed from the event channel, and the
// new-order counter maintained by the polling loop.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/orderpulse/notify-service/internal/channel"
	"github.com/orderpulse/notify-service/internal/domain/event"
	"github.com/orderpulse/notify-service/internal/orders"
	"github.com/orderpulse/notify-service/internal/poller"
)

const feedCap = 100

type Dashboard struct {
	ch     *channel.Client
	poller *poller.Poller
	logger *slog.Logger

	mu   sync.Mutex
	feed []string
}

func New(ch *channel.Client, fetch poller.Fetcher, cfg poller.Config, logger *slog.Logger) *Dashboard {
	d := &Dashboard{ch: ch, logger: logger}
	d.poller = poller.New(cfg, fetch, poller.NotifierFunc(d.onNewOrder), logger)
	return d
}

// Run blocks until the operator quits or ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: init terminal: %w", err)
	}
	defer ui.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := d.ch.Subscribe(d.onEnvelope)
	defer unsubscribe()

	d.ch.Connect()
	defer d.ch.Disconnect()

	go d.poller.Run(ctx)

	status := widgets.NewParagraph()
	status.Title = "Channel"

	counter := widgets.NewParagraph()
	counter.Title = "Orders"

	feed := widgets.NewList()
	feed.Title = "Notifications"
	feed.WrapText = false

	help := widgets.NewParagraph()
	help.Text = "[q](fg:yellow) quit  [c](fg:yellow) check now  [r](fg:yellow) reset counter"
	help.Border = false

	layout := func(w, h int) {
		status.SetRect(0, 0, w/2, 3)
		counter.SetRect(w/2, 0, w, 3)
		feed.SetRect(0, 3, w, h-2)
		help.SetRect(0, h-2, w, h)
	}
	layout(ui.TerminalDimensions())

	draw := func() {
		st := d.poller.Snapshot()

		if d.ch.IsConnected() {
			status.Text = "[connected](fg:green)"
		} else {
			status.Text = fmt.Sprintf("[%s](fg:red)", d.ch.State())
		}
		if st.Err != "" {
			status.Text += fmt.Sprintf("  poll error: %s", st.Err)
		}

		checked := "never"
		if !st.LastCheck.IsZero() {
			checked = st.LastCheck.Format("15:04:05")
		}
		counter.Text = fmt.Sprintf("new: [%d](fg:cyan,mod:bold)  recent: %d  checked: %s",
			st.NewCount, len(st.Recent), checked)

		d.mu.Lock()
		feed.Rows = append([]string(nil), d.feed...)
		d.mu.Unlock()

		ui.Render(status, counter, feed, help)
	}
	draw()

	events := ui.PollEvents()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			draw()
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "c":
				go d.poller.CheckNow()
			case "r":
				d.poller.ResetNewCount()
				draw()
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				layout(payload.Width, payload.Height)
				ui.Clear()
				draw()
			}
		}
	}
}

func (d *Dashboard) onNewOrder(o orders.Order) {
	d.push(fmt.Sprintf("%s  order %s on %s  $%.2f",
		time.Now().Format("15:04:05"), o.ID, o.Marketplace, o.TotalAmount))
}

func (d *Dashboard) onEnvelope(env *event.Envelope) {
	line, ok := describe(env)
	if !ok {
		return
	}
	d.push(fmt.Sprintf("%s  %s", env.Timestamp.Format("15:04:05"), line))
}

func (d *Dashboard) push(line string) {
	d.mu.Lock()
	d.feed = append([]string{line}, d.feed...)
	if len(d.feed) > feedCap {
		d.feed = d.feed[:feedCap]
	}
	d.mu.Unlock()
}

// describe renders an envelope as a one-line feed entry. Pong frames are
// liveness traffic, not operator-facing news.
func describe(env *event.Envelope) (string, bool) {
	switch env.Kind {
	case event.OrderCreated:
		var p event.OrderCreatedPayload
		if err := env.Payload(&p); err != nil {
			return "", false
		}
		return fmt.Sprintf("[new order](fg:green) %s on %s  $%.2f", p.OrderID, p.Marketplace, p.TotalAmount), true
	case event.OrderUpdated:
		var p event.OrderUpdatedPayload
		if err := env.Payload(&p); err != nil {
			return "", false
		}
		return fmt.Sprintf("order %s -> %s", p.OrderID, p.Status), true
	case event.TrackingUploaded:
		var p event.TrackingUploadedPayload
		if err := env.Payload(&p); err != nil {
			return "", false
		}
		return fmt.Sprintf("tracking %s for order %s", p.TrackingNumber, p.OrderID), true
	case event.ProductRegistered:
		var p event.ProductRegisteredPayload
		if err := env.Payload(&p); err != nil {
			return "", false
		}
		return fmt.Sprintf("product registered: %s", p.Title), true
	case event.PriceAlert:
		var p event.PriceAlertPayload
		if err := env.Payload(&p); err != nil {
			return "", false
		}
		return fmt.Sprintf("[price drop](fg:magenta) %s  %.2f -> %.2f", p.Title, p.OldPrice, p.NewPrice), true
	default:
		return "", false
	}
}
