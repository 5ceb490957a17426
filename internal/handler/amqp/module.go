package amqp

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/internal/adapter/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("amqp-handler",
	fx.Provide(
		pubsub.NewPublisherProvider,
		pubsub.NewSubscriberProvider,
		NewNotifyDispatcher,

		NewMessageHandler,
		NewWatermillRouter,
	),

	fx.Invoke(func(h *MessageHandler, router *message.Router, sp *pubsub.SubscriberProvider) error {
		return h.RegisterHandlers(router, sp)
	}),
	fx.Invoke(runRouter),
)

// NewNotifyDispatcher builds the outgoing dispatcher on the notify exchange.
func NewNotifyDispatcher(pp *pubsub.PublisherProvider) (pubsub.EventDispatcher, error) {
	pub, err := pp.Build(NotifyEventsExchange)
	if err != nil {
		return nil, err
	}
	return pubsub.NewEventDispatcher(pub), nil
}

func runRouter(lc fx.Lifecycle, router *message.Router, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Error("amqp router stopped", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
