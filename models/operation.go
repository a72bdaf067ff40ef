package models

import "encoding/json"

// Operation states reported by the API and by push notifications.
const (
	OperationStateCreated   = "created"
	OperationStateCompleted = "completed"
	OperationStateRejected  = "rejected"
)

// Outcome codes produced on the client side.
const (
	OutcomeCodeError   = "error"
	OutcomeCodeTimeout = "timeout"
)

type OperationEvent struct {
	Success  string `json:"success"`
	Rejected string `json:"rejected"`
}

// OperationDefinition binds a command name to the events the backend emits
// once the command succeeds or is rejected.
type OperationDefinition struct {
	Name  string         `json:"name"`
	Event OperationEvent `json:"event"`
}

// OperationOutcome is the resolved result handed to callers and subscribers.
type OperationOutcome struct {
	RequestID string          `json:"requestId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Completed bool            `json:"completed"`
	Success   bool            `json:"success"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Messages  []string        `json:"messages,omitempty"`
	Resource  json.RawMessage `json:"resource,omitempty"`
}

// OperationState is the body served by GET operations/<id>.
type OperationState struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	State      string          `json:"state"`
	Success    bool            `json:"success"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Resource   json.RawMessage `json:"resource,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
}

// OperationUpdatedMessage is the push notification sent when an operation
// reaches a terminal state. Name carries the event name, not the command.
type OperationUpdatedMessage struct {
	RequestID string `json:"requestId"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (m OperationUpdatedMessage) Succeeded() bool {
	return m.State == OperationStateCompleted
}
