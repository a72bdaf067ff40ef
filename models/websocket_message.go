package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type WebSocketMessageType string

const (
	EventMessage WebSocketMessageType = "event"
	ErrorMessage WebSocketMessageType = "error"
)

// OperationUpdatedEvent is the event name carried by operation notifications.
const OperationUpdatedEvent = "operation_updated"

// StandardMessage is the envelope exchanged over the realtime websocket.
type StandardMessage struct {
	ID        string               `json:"id"`
	Type      WebSocketMessageType `json:"type"`
	Event     string               `json:"event,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   json.RawMessage      `json:"payload"`
}

func NewStandardMessage(msgType WebSocketMessageType, event string, payload interface{}) (*StandardMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &StandardMessage{
		ID:        uuid.New().String(),
		Type:      msgType,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// OperationUpdate decodes the payload when the message is an
// operation_updated event.
func (m *StandardMessage) OperationUpdate() (OperationUpdatedMessage, bool) {
	var update OperationUpdatedMessage
	if m.Type != EventMessage || m.Event != OperationUpdatedEvent {
		return update, false
	}
	if err := json.Unmarshal(m.Payload, &update); err != nil || update.RequestID == "" {
		return update, false
	}
	return update, true
}
