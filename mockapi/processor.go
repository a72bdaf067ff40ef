package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/broker"
	"github.com/warden-io/warden-panel/models"
	"github.com/warden-io/warden-panel/services"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ValidationError rejects a command before it is accepted. Message is shown
// to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrUnknownCommand  = &ValidationError{Message: "Unknown command."}
	ErrPasswordTooWeak = &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters long.", minPasswordLength)}
)

// Payload fields holding secrets. They are stored hashed.
var passwordFields = []string{"password", "new_password"}

type ProcessorInterface interface {
	Accept(ctx context.Context, command, userID string, payload map[string]interface{}) (*models.OperationRecord, error)
}

// Processor accepts commands and completes them in the background after a
// delay.
type Processor struct {
	store    OperationStoreInterface
	registry services.OperationRegistryInterface
	hub      Broadcaster
	producer broker.Producer
	delay    time.Duration

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

func NewProcessor(
	store OperationStoreInterface,
	registry services.OperationRegistryInterface,
	hub Broadcaster,
	producer broker.Producer,
	delay time.Duration,
) *Processor {
	if producer == nil {
		producer = broker.NoopProducer{}
	}
	return &Processor{
		store:    store,
		registry: registry,
		hub:      hub,
		producer: producer,
		delay:    delay,
		stop:     make(chan struct{}),
	}
}

// Accept validates and records a command. The returned record is still in
// the created state.
func (p *Processor) Accept(ctx context.Context, command, userID string, payload map[string]interface{}) (*models.OperationRecord, error) {
	if _, ok := p.registry.Lookup(command); !ok {
		return nil, ErrUnknownCommand
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}

	if err := hashPasswords(payload); err != nil {
		return nil, err
	}

	record, err := models.NewOperationRecord(command, userID, payload)
	if err != nil {
		return nil, err
	}
	if resource := resourceFor(command, record.ID.String()); resource != "" {
		data, err := json.Marshal(resource)
		if err != nil {
			return nil, err
		}
		record.Resource = data
	}

	if err := p.store.Create(ctx, record); err != nil {
		return nil, err
	}

	reject, _ := payload["reject"].(bool)
	p.schedule(record, reject)
	return record, nil
}

func (p *Processor) schedule(record *models.OperationRecord, reject bool) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-p.stop:
			return
		case <-timer.C:
		}

		if err := p.complete(context.Background(), record, !reject); err != nil {
			log.Error().Err(err).Str("operation_id", record.ID.String()).Msg("failed to complete operation")
		}
	}()
}

func (p *Processor) complete(ctx context.Context, record *models.OperationRecord, success bool) error {
	result := Result{Success: true, Code: "ok", Message: "Operation completed."}
	if !success {
		result = Result{Success: false, Code: "rejected", Message: "Operation was rejected."}
	}

	completed, err := p.store.Complete(ctx, record.ID.String(), result)
	if err != nil {
		return err
	}

	definition, _ := p.registry.Lookup(completed.Name)
	update := models.OperationUpdatedMessage{
		RequestID: completed.ID.String(),
		Name:      definition.Event.Success,
		State:     completed.State,
		Code:      completed.Code,
		Message:   completed.Message,
	}
	if !completed.Success {
		update.Name = definition.Event.Rejected
	}

	message, err := models.NewStandardMessage(models.EventMessage, models.OperationUpdatedEvent, update)
	if err != nil {
		return err
	}
	p.hub.SendToUser(completed.UserID, message)

	if err := broker.PublishJSON(p.producer, broker.OperationsSubject, update); err != nil {
		log.Warn().Err(err).Str("operation_id", update.RequestID).Msg("failed to publish operation event")
	}

	log.Info().
		Str("operation_id", update.RequestID).
		Str("event", update.Name).
		Str("state", update.State).
		Msg("operation completed")
	return nil
}

// Close cancels pending completions and waits for running ones.
func (p *Processor) Close() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func hashPasswords(payload map[string]interface{}) error {
	for _, field := range passwordFields {
		value, ok := payload[field].(string)
		if !ok {
			continue
		}
		if len(value) < minPasswordLength {
			return ErrPasswordTooWeak
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		payload[field] = string(hashed)
	}
	return nil
}

// resourceFor names the resource a create_* command produces, such as
// "organizations/<id>".
func resourceFor(command, id string) string {
	kind, ok := strings.CutPrefix(command, "create_")
	if !ok {
		return ""
	}
	return kind + "s/" + id
}
