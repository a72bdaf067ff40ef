package mockapi

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-io/warden-panel/broker"
	"github.com/warden-io/warden-panel/models"
	"github.com/warden-io/warden-panel/services"
	"github.com/warden-io/warden-panel/testutils"
	"golang.org/x/crypto/bcrypt"
)

type recordingHub struct {
	mu       sync.Mutex
	users    []string
	messages []*models.StandardMessage
}

func (h *recordingHub) SendToUser(userID string, message *models.StandardMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.users = append(h.users, userID)
	h.messages = append(h.messages, message)
}

func (h *recordingHub) updates() []models.OperationUpdatedMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []models.OperationUpdatedMessage
	for _, m := range h.messages {
		if update, ok := m.OperationUpdate(); ok {
			out = append(out, update)
		}
	}
	return out
}

type recordingProducer struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *recordingProducer) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingProducer) Close() {}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type processorFixture struct {
	processor *Processor
	store     *OperationStore
	hub       *recordingHub
	producer  *recordingProducer
}

func newProcessorFixture(t *testing.T, delay time.Duration) *processorFixture {
	t.Helper()

	store := NewOperationStore(testutils.SetupSQLiteDB(t))
	hub := &recordingHub{}
	producer := &recordingProducer{}
	processor := NewProcessor(store, services.NewOperationRegistry(), hub, producer, delay)
	t.Cleanup(processor.Close)

	return &processorFixture{processor: processor, store: store, hub: hub, producer: producer}
}

func TestProcessorCompletesCommand(t *testing.T) {
	f := newProcessorFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	record, err := f.processor.Accept(ctx, "sign_up", "user-1", map[string]interface{}{
		"username": "admin",
		"password": "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OperationStateCreated, record.State)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(record.Payload, &payload))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(payload["password"]), []byte("correct horse")))

	require.Eventually(t, func() bool { return len(f.hub.updates()) == 1 }, time.Second, 5*time.Millisecond)

	update := f.hub.updates()[0]
	assert.Equal(t, record.ID.String(), update.RequestID)
	assert.Equal(t, "signed_up", update.Name)
	assert.True(t, update.Succeeded())
	assert.Equal(t, []string{"user-1"}, f.hub.users)

	require.Eventually(t, func() bool { return f.producer.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, broker.OperationsSubject, f.producer.subjects[0])

	stored, err := f.store.Get(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.OperationStateCompleted, stored.State)
}

func TestProcessorRejectsOnRequest(t *testing.T) {
	f := newProcessorFixture(t, time.Millisecond)

	record, err := f.processor.Accept(context.Background(), "create_organization", "", map[string]interface{}{
		"name":   "acme",
		"reject": true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `"organizations/`+record.ID.String()+`"`, string(record.Resource))

	require.Eventually(t, func() bool { return len(f.hub.updates()) == 1 }, time.Second, 5*time.Millisecond)

	update := f.hub.updates()[0]
	assert.Equal(t, "create_organization_rejected", update.Name)
	assert.Equal(t, models.OperationStateRejected, update.State)
	assert.False(t, update.Succeeded())
}

func TestProcessorValidation(t *testing.T) {
	f := newProcessorFixture(t, time.Millisecond)
	ctx := context.Background()

	_, err := f.processor.Accept(ctx, "launch_rockets", "", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = f.processor.Accept(ctx, "change_password", "", map[string]interface{}{"new_password": "short"})
	assert.ErrorIs(t, err, ErrPasswordTooWeak)
	assert.Equal(t, "Password must be at least 8 characters long.", err.Error())
}

func TestProcessorCloseCancelsPendingCompletions(t *testing.T) {
	f := newProcessorFixture(t, time.Hour)
	ctx := context.Background()

	record, err := f.processor.Accept(ctx, "create_api_key", "", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.processor.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not return")
	}

	stored, err := f.store.Get(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.OperationStateCreated, stored.State)
	assert.Empty(t, f.hub.updates())
}

func TestResourceFor(t *testing.T) {
	assert.Equal(t, "wardens/1", resourceFor("create_warden", "1"))
	assert.Equal(t, "api_keys/1", resourceFor("create_api_key", "1"))
	assert.Empty(t, resourceFor("sign_up", "1"))
}
