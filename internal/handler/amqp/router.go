package amqp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/orderpulse/notify-service/internal/adapter/pubsub"
	"github.com/orderpulse/notify-service/internal/domain/registry"
)

const (
	// ------------------- EXCHANGES (SOURCES) -------------------
	OrderEventsExchange   = "op_orders.events"
	CatalogEventsExchange = "op_catalog.events"
	NotifyEventsExchange  = "op_notify.events"

	// ------------------- TOPICS (ROUTING KEYS) -----------------
	TopicOrderCreated      = "op_orders.#.order.created.v1"
	TopicOrderUpdated      = "op_orders.#.order.updated.v1"
	TopicTrackingUploaded  = "op_orders.#.tracking.uploaded.v1"
	TopicProductRegistered = "op_catalog.#.product.registered.v1"
	TopicPriceAlert        = "op_catalog.#.price.alert.v1"

	// ------------------- QUEUES (CONSUMERS) --------------------
	IngestProcessorQueue = "op-notify.incoming-processor.v1"
	IngestPoisonTopic    = "op-notify.incoming-processor.v1.poison"
)

// dedupWindow bounds how many recently handled message ids are remembered
// to suppress broker redeliveries of already-broadcast envelopes.
const dedupWindow = 4096

type MessageHandler struct {
	hub        registry.Hubber
	logger     *slog.Logger
	dispatcher pubsub.EventDispatcher
	dedup      *lru.Cache[string, struct{}]
}

func NewMessageHandler(hub registry.Hubber, logger *slog.Logger, dispatcher pubsub.EventDispatcher) (*MessageHandler, error) {
	dedup, err := lru.New[string, struct{}](dedupWindow)
	if err != nil {
		return nil, fmt.Errorf("amqp handler: dedup cache: %w", err)
	}
	return &MessageHandler{
		hub:        hub,
		logger:     logger,
		dispatcher: dispatcher,
		dedup:      dedup,
	}, nil
}

func NewWatermillRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
}

// RegisterHandlers wires every marketplace listener into the router with a
// unique per-node queue, so each node sees the full event stream and can
// serve its own dashboard sessions.
func (h *MessageHandler) RegisterHandlers(router *message.Router, subProvider *pubsub.SubscriberProvider) error {
	poison, err := middleware.PoisonQueue(h.dispatcher.Publisher(), IngestPoisonTopic)
	if err != nil {
		return fmt.Errorf("amqp handler: poison setup: %w", err)
	}

	configs := []struct {
		name     string
		exchange string
		topic    string
		handler  message.NoPublishHandlerFunc
	}{
		{"ON_ORDER_CREATED", OrderEventsExchange, TopicOrderCreated, Bind(h, h.OnOrderCreatedV1)},
		{"ON_ORDER_UPDATED", OrderEventsExchange, TopicOrderUpdated, Bind(h, h.OnOrderUpdatedV1)},
		{"ON_TRACKING_UPLOADED", OrderEventsExchange, TopicTrackingUploaded, Bind(h, h.OnTrackingUploadedV1)},
		{"ON_PRODUCT_REGISTERED", CatalogEventsExchange, TopicProductRegistered, Bind(h, h.OnProductRegisteredV1)},
		{"ON_PRICE_ALERT", CatalogEventsExchange, TopicPriceAlert, Bind(h, h.OnPriceAlertV1)},
	}

	for _, c := range configs {
		instanceID := uuid.NewString()[:8]
		// Each handler on each node gets its own queue, e.g.
		// op-notify.incoming-processor.v1.b23a8f12.ON_ORDER_CREATED.
		handlerQueue := fmt.Sprintf("%s.%s.%s", IngestProcessorQueue, instanceID, c.name)

		sub, err := subProvider.Build(handlerQueue, c.exchange, c.topic)
		if err != nil {
			return err
		}

		router.AddConsumerHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.NewThrottle(100, time.Second).Middleware,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("amqp pipeline ready", "queue", IngestProcessorQueue)
	return nil
}
