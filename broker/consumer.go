package broker

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Consumer interface {
	GetMessageChannel() chan *nats.Msg
	IsConnected() bool
	Close()
}

// NatsConsumer delivers every message of its subjects on one channel.
type NatsConsumer struct {
	conn          *nats.Conn
	subscriptions []*nats.Subscription
	messages      chan *nats.Msg
}

// InitConsumer connects to url and subscribes to subjects. A non-empty queue
// group spreads messages across consumers of the same group.
func InitConsumer(url string, subjects []string, queueGroup string) (*NatsConsumer, error) {
	conn, err := nats.Connect(url,
		nats.Name("warden-panel"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}

	consumer := &NatsConsumer{
		conn:     conn,
		messages: make(chan *nats.Msg, 64),
	}

	for _, subject := range subjects {
		var sub *nats.Subscription
		if queueGroup != "" {
			sub, err = conn.ChanQueueSubscribe(subject, queueGroup, consumer.messages)
		} else {
			sub, err = conn.ChanSubscribe(subject, consumer.messages)
		}
		if err != nil {
			consumer.Close()
			return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		consumer.subscriptions = append(consumer.subscriptions, sub)
	}

	log.Info().Strs("subjects", subjects).Str("url", url).Msg("nats consumer started")
	return consumer, nil
}

func (c *NatsConsumer) GetMessageChannel() chan *nats.Msg {
	return c.messages
}

func (c *NatsConsumer) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func (c *NatsConsumer) Close() {
	for _, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.Debug().Err(err).Str("subject", sub.Subject).Msg("nats unsubscribe failed")
		}
	}
	c.subscriptions = nil
	if c.conn != nil {
		c.conn.Close()
	}
}
