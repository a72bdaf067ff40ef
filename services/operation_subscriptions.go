package services

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

type SubscriptionID string

type SubscriptionManagerInterface interface {
	Subscribe(operation string, onSuccess, onRejected models.OperationCallback) SubscriptionID
	Unsubscribe(id SubscriptionID) bool
	UnsubscribeAll()
	Publish(outcome models.OperationOutcome) int
}

// SubscriptionManager holds the callers interested in operation outcomes.
type SubscriptionManager struct {
	registry OperationRegistryInterface

	mu            sync.RWMutex
	subscriptions []models.Subscription

	unknown atomic.Int64
}

func NewSubscriptionManager(registry OperationRegistryInterface) *SubscriptionManager {
	return &SubscriptionManager{registry: registry}
}

// Subscribe registers callbacks for a registered operation. Unknown
// operations are ignored and the empty ID is returned.
func (m *SubscriptionManager) Subscribe(operation string, onSuccess, onRejected models.OperationCallback) SubscriptionID {
	definition, ok := m.registry.Lookup(operation)
	if !ok {
		m.unknown.Add(1)
		log.Warn().Str("operation", operation).Msg("ignoring subscription to unknown operation")
		return ""
	}

	if onSuccess == nil {
		onSuccess = func(models.OperationOutcome) {}
	}
	if onRejected == nil {
		onRejected = func(models.OperationOutcome) {}
	}

	id := SubscriptionID(uuid.New().String())

	m.mu.Lock()
	m.subscriptions = append(m.subscriptions, models.Subscription{
		ID:         string(id),
		Operation:  definition.Name,
		Event:      definition.Event,
		OnSuccess:  onSuccess,
		OnRejected: onRejected,
	})
	m.mu.Unlock()

	return id
}

func (m *SubscriptionManager) Unsubscribe(id SubscriptionID) bool {
	if id == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscriptions {
		if sub.ID == string(id) {
			m.subscriptions = append(m.subscriptions[:i:i], m.subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

func (m *SubscriptionManager) UnsubscribeAll() {
	m.mu.Lock()
	m.subscriptions = nil
	m.mu.Unlock()
}

// Publish invokes the matching callback of every subscription interested in
// the outcome and returns how many were invoked. Callbacks run without the
// lock held so they may subscribe or unsubscribe.
func (m *SubscriptionManager) Publish(outcome models.OperationOutcome) int {
	if _, ok := m.registry.Lookup(outcome.Name); !ok {
		if _, ok := m.registry.LookupEvent(outcome.Name); !ok {
			m.unknown.Add(1)
			log.Debug().Str("operation", outcome.Name).Msg("publishing outcome of unknown operation")
			return 0
		}
	}

	m.mu.RLock()
	snapshot := make([]models.Subscription, len(m.subscriptions))
	copy(snapshot, m.subscriptions)
	m.mu.RUnlock()

	invoked := 0
	for _, sub := range snapshot {
		callback, ok := sub.Matches(outcome)
		if !ok {
			continue
		}
		callback(outcome)
		invoked++
	}
	return invoked
}

func (m *SubscriptionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// UnknownOperations counts subscriptions and publications that referenced an
// operation missing from the registry.
func (m *SubscriptionManager) UnknownOperations() int64 {
	return m.unknown.Load()
}
