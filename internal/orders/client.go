// Package orders is the REST boundary the pull path consumes: recent-order
// snapshots from the dashboard API, guarded by a circuit breaker so a dead
// backend fails fast instead of stacking timed-out requests.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// Order is one recent item as the API reports it. ID is the stable
// identifier the poller diffs on.
type Order struct {
	ID          string    `json:"order_id"`
	Marketplace string    `json:"marketplace"`
	Customer    string    `json:"customer_name"`
	TotalAmount float64   `json:"total_amount"`
	OrderedAt   time.Time `json:"ordered_at"`
}

// Snapshot is the result of one recent-orders fetch.
type Snapshot struct {
	Orders    []Order
	CheckedAt time.Time
}

type recentResponse struct {
	Success   bool      `json:"success"`
	Orders    []Order   `json:"orders"`
	CheckedAt time.Time `json:"checked_at"`
}

// Breaker thresholds: trip only on sustained failure and recover within one
// poll interval, so transient errors keep their retry-next-tick semantics.
const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 30 * time.Second
)

// Client fetches recent orders from the configured API origin.
type Client struct {
	origin  string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewClient(origin string, logger *slog.Logger) *Client {
	c := &Client{
		origin: origin,
		httpc:  &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "orders-api",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("orders api breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Recent returns orders created within the given window.
func (c *Client) Recent(ctx context.Context, window time.Duration) (*Snapshot, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Snapshot), nil
}

func (c *Client) fetch(ctx context.Context, window time.Duration) (*Snapshot, error) {
	minutes := int(window / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	endpoint := c.origin + "/api/orders/recent?" + url.Values{
		"minutes": {strconv.Itoa(minutes)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("orders: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders: fetch recent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders: fetch recent: unexpected status %d", resp.StatusCode)
	}

	var body recentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("orders: decode response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("orders: api reported failure")
	}

	checkedAt := body.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}
	return &Snapshot{Orders: body.Orders, CheckedAt: checkedAt}, nil
}
