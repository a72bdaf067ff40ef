package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitConsumerUnreachableServer(t *testing.T) {
	consumer, err := InitConsumer("nats://127.0.0.1:1", []string{OperationsSubject}, "")

	assert.Error(t, err)
	assert.Nil(t, consumer)
}

func TestInitProducerUnreachableServer(t *testing.T) {
	producer, err := InitProducer("nats://127.0.0.1:1")

	assert.Error(t, err)
	assert.Nil(t, producer)
}

func TestNatsConsumerWithoutConnection(t *testing.T) {
	consumer := &NatsConsumer{}

	assert.False(t, consumer.IsConnected())
	assert.Nil(t, consumer.GetMessageChannel())
	consumer.Close()
}
