package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/orderpulse/notify-service/config"
)

// PublisherProvider builds topic-exchange publishers against the broker.
type PublisherProvider struct {
	url    string
	logger watermill.LoggerAdapter
}

func NewPublisherProvider(cfg *config.Config, logger watermill.LoggerAdapter) *PublisherProvider {
	return &PublisherProvider{url: cfg.AMQP.URL, logger: logger}
}

func (pp *PublisherProvider) Build(exchange string) (message.Publisher, error) {
	cfg := amqp.NewDurablePubSubConfig(pp.url, nil)
	cfg.Exchange.GenerateName = func(string) string { return exchange }
	cfg.Exchange.Type = "topic"
	cfg.Exchange.Durable = true
	cfg.Publish.GenerateRoutingKey = func(topic string) string { return topic }

	return amqp.NewPublisher(cfg, pp.logger)
}
