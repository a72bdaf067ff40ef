package services

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/broker"
	"github.com/warden-io/warden-panel/models"
)

type EventHandlerServiceInterface interface {
	Start()
	Stop()
	Connected() bool
}

// EventHandlerService feeds operation_updated messages from the broker to
// the operation dispatcher.
type EventHandlerService struct {
	consumer broker.Consumer
	handler  OperationUpdateHandler

	mu        sync.Mutex
	isRunning bool
	stop      chan struct{}
	stopped   chan struct{}
}

func NewEventHandlerService(consumer broker.Consumer, handler OperationUpdateHandler) *EventHandlerService {
	return &EventHandlerService{
		consumer: consumer,
		handler:  handler,
	}
}

func (s *EventHandlerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.processEvents(s.consumer.GetMessageChannel(), s.stop, s.stopped)
	log.Info().Msg("operation event handler started")
}

// Stop halts processing and closes the consumer.
func (s *EventHandlerService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stop)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	s.consumer.Close()
	log.Info().Msg("operation event handler stopped")
}

// Connected reports whether pushed notifications can currently arrive.
func (s *EventHandlerService) Connected() bool {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()

	return running && s.consumer.IsConnected()
}

func (s *EventHandlerService) processEvents(messages chan *nats.Msg, stop, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-stop:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

func (s *EventHandlerService) handleMessage(msg *nats.Msg) {
	var update models.OperationUpdatedMessage
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("unreadable operation event")
		return
	}
	if update.RequestID == "" {
		log.Debug().Str("subject", msg.Subject).Msg("operation event without request id")
		return
	}

	resolved := s.handler(update)
	log.Debug().
		Str("subject", msg.Subject).
		Str("request_id", update.RequestID).
		Str("event", string(broker.OperationUpdated)).
		Bool("resolved", resolved).
		Msg("operation event received")
}
