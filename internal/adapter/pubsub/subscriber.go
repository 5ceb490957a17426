package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/config"
)

// SubscriberProvider builds durable queue subscribers bound to topic
// exchanges with a routing-key pattern.
type SubscriberProvider struct {
	url    string
	logger watermill.LoggerAdapter
}

func NewSubscriberProvider(cfg *config.Config, logger watermill.LoggerAdapter) *SubscriberProvider {
	return &SubscriberProvider{url: cfg.AMQP.URL, logger: logger}
}

func (sp *SubscriberProvider) Build(queue, exchange, topic string) (message.Subscriber, error) {
	cfg := amqp.NewDurablePubSubConfig(sp.url, amqp.GenerateQueueNameConstant(queue))
	cfg.Exchange.GenerateName = func(string) string { return exchange }
	cfg.Exchange.Type = "topic"
	cfg.Exchange.Durable = true
	cfg.QueueBind.GenerateRoutingKey = func(string) string { return topic }

	return amqp.NewSubscriber(cfg, sp.logger)
}
