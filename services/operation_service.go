package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

const (
	operationNotFoundMessage     = "Operation has not been found."
	operationNotCompletedMessage = "Operation has not completed."
)

// CommandFunc invokes a command against the API and returns its parsed
// response.
type CommandFunc func(ctx context.Context) (models.Response, error)

// RealtimeChannel is a push source able to deliver operation_updated
// notifications.
type RealtimeChannel interface {
	Connected() bool
}

type Authenticator interface {
	IsLoggedIn() bool
}

type OperationServiceInterface interface {
	Subscribe(operation string, onSuccess, onRejected models.OperationCallback) SubscriptionID
	Unsubscribe(id SubscriptionID) bool
	UnsubscribeAll()
	Execute(ctx context.Context, command CommandFunc) (models.OperationOutcome, error)
	HandleOperationUpdated(message models.OperationUpdatedMessage) bool
}

// OperationService runs commands and reconciles their deferred outcomes,
// delivered by push or found by polling, with subscriber callbacks.
type OperationService struct {
	subscriptions *SubscriptionManager
	store         *PendingOperationStore
	poller        *OperationPoller
	auth          Authenticator
	pushTimeout   time.Duration

	mu       sync.RWMutex
	realtime RealtimeChannel
}

func NewOperationService(
	subscriptions *SubscriptionManager,
	store *PendingOperationStore,
	poller *OperationPoller,
	auth Authenticator,
	pushTimeout time.Duration,
) *OperationService {
	return &OperationService{
		subscriptions: subscriptions,
		store:         store,
		poller:        poller,
		auth:          auth,
		pushTimeout:   pushTimeout,
	}
}

// SetRealtimeChannel enables push resolution through ch. A nil channel
// disables it.
func (s *OperationService) SetRealtimeChannel(ch RealtimeChannel) {
	s.mu.Lock()
	s.realtime = ch
	s.mu.Unlock()
}

func (s *OperationService) Subscribe(operation string, onSuccess, onRejected models.OperationCallback) SubscriptionID {
	return s.subscriptions.Subscribe(operation, onSuccess, onRejected)
}

func (s *OperationService) Unsubscribe(id SubscriptionID) bool {
	return s.subscriptions.Unsubscribe(id)
}

func (s *OperationService) UnsubscribeAll() {
	s.subscriptions.UnsubscribeAll()
}

// Execute runs the command and waits for its outcome. Responses without an
// operation reference are returned as an error outcome without notifying
// subscribers. Transport errors are returned as is.
func (s *OperationService) Execute(ctx context.Context, command CommandFunc) (models.OperationOutcome, error) {
	response, err := command(ctx)
	if err != nil {
		return models.OperationOutcome{}, err
	}

	endpoint := response.OperationEndpoint()
	if endpoint == "" {
		return CommandRejectedOutcome(response), nil
	}

	requestID, err := RequestIDFromEndpoint(endpoint)
	if err != nil {
		return models.OperationOutcome{}, err
	}

	s.store.Register(requestID, models.OperationOutcome{Resource: response.Resource()})
	defer s.store.Remove(requestID)

	if s.pushAvailable() {
		outcome, resolved, err := s.awaitPush(ctx, requestID)
		if err != nil || resolved {
			return outcome, err
		}
		log.Debug().Str("request_id", requestID).Dur("timeout", s.pushTimeout).Msg("no push notification received, polling")
	}

	return s.poll(ctx, requestID, endpoint)
}

// HandleOperationUpdated resolves a pending operation from a push
// notification. It returns false when the request id is unknown or the
// operation was already resolved.
func (s *OperationService) HandleOperationUpdated(message models.OperationUpdatedMessage) bool {
	op, won := s.store.MarkProcessed(message.RequestID, models.OperationOutcome{
		Name:    message.Name,
		Success: message.Succeeded(),
		Code:    message.Code,
		Message: message.Message,
	})
	if !won {
		log.Debug().Str("request_id", message.RequestID).Str("name", message.Name).Msg("ignoring operation update")
		return false
	}

	s.subscriptions.Publish(op.Value)
	s.store.Settle(message.RequestID)
	return true
}

func (s *OperationService) pushAvailable() bool {
	s.mu.RLock()
	ch := s.realtime
	s.mu.RUnlock()

	return ch != nil && ch.Connected() && s.auth != nil && s.auth.IsLoggedIn()
}

func (s *OperationService) awaitPush(ctx context.Context, requestID string) (models.OperationOutcome, bool, error) {
	timer := time.NewTimer(s.pushTimeout)
	defer timer.Stop()

	select {
	case <-s.store.Done(requestID):
		outcome, err := s.settled(ctx, requestID)
		return outcome, true, err
	case <-timer.C:
		if s.store.IsProcessed(requestID) {
			outcome, err := s.settled(ctx, requestID)
			return outcome, true, err
		}
		return models.OperationOutcome{}, false, nil
	case <-ctx.Done():
		return models.OperationOutcome{}, false, ctx.Err()
	}
}

func (s *OperationService) poll(ctx context.Context, requestID, endpoint string) (models.OperationOutcome, error) {
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := s.store.Done(requestID)
	go func() {
		select {
		case <-done:
			cancel()
		case <-pollCtx.Done():
		}
	}()

	outcome, completed, err := s.poller.Poll(pollCtx, endpoint)
	if s.store.IsProcessed(requestID) {
		return s.settled(ctx, requestID)
	}
	if err != nil {
		return models.OperationOutcome{}, err
	}
	if !completed {
		return TimeoutOutcome(requestID), nil
	}

	op, won := s.store.MarkProcessed(requestID, outcome)
	if !won {
		return s.settled(ctx, requestID)
	}

	s.subscriptions.Publish(op.Value)
	s.store.Settle(requestID)
	return op.Value, nil
}

// settled waits until the resolver that won has published, then returns the
// stored outcome.
func (s *OperationService) settled(ctx context.Context, requestID string) (models.OperationOutcome, error) {
	select {
	case <-s.store.Done(requestID):
	case <-ctx.Done():
		return models.OperationOutcome{}, ctx.Err()
	}

	op, _ := s.store.Get(requestID)
	return op.Value, nil
}

// RequestIDFromEndpoint extracts the request id, the second path segment of
// an operation reference such as "operations/<id>".
func RequestIDFromEndpoint(endpoint string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(endpoint, "/"), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	return parts[1], nil
}

func CommandRejectedOutcome(response models.Response) models.OperationOutcome {
	messages := response.ErrorMessages()
	if len(messages) == 0 {
		messages = []string{operationNotFoundMessage}
	}
	return models.OperationOutcome{
		Success:  false,
		Code:     models.OutcomeCodeError,
		Messages: messages,
	}
}

func TimeoutOutcome(requestID string) models.OperationOutcome {
	return models.OperationOutcome{
		RequestID: requestID,
		Completed: false,
		Success:   false,
		Code:      models.OutcomeCodeTimeout,
		Message:   operationNotCompletedMessage,
		Messages:  []string{operationNotCompletedMessage},
	}
}
