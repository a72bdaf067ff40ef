package broker

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Producer interface {
	Publish(subject string, data []byte) error
	Close()
}

type NatsProducer struct {
	conn *nats.Conn
}

func InitProducer(url string) (*NatsProducer, error) {
	conn, err := nats.Connect(url, nats.Name("warden-mockapi"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	log.Info().Str("url", url).Msg("nats producer initialized")
	return &NatsProducer{conn: conn}, nil
}

func (p *NatsProducer) Publish(subject string, data []byte) error {
	return p.conn.Publish(subject, data)
}

func (p *NatsProducer) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NoopProducer drops everything. It stands in when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) Publish(string, []byte) error { return nil }

func (NoopProducer) Close() {}

// PublishJSON encodes v and publishes it on subject.
func PublishJSON(p Producer, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", subject, err)
	}
	if err := p.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	log.Debug().Str("subject", subject).Int("bytes", len(data)).Msg("published message")
	return nil
}
