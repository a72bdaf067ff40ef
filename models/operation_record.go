package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONPayload stores arbitrary JSON in a jsonb/text column.
type JSONPayload json.RawMessage

func (p JSONPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return string(p), nil
}

func (p *JSONPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		*p = append((*p)[:0], v...)
		return nil
	case string:
		*p = JSONPayload(v)
		return nil
	}
	return errors.New("type assertion to []byte failed")
}

func (p JSONPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *JSONPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// OperationRecord is the mock API's persisted view of a submitted command.
type OperationRecord struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string      `gorm:"not null;index" json:"name"`
	UserID      string      `gorm:"index" json:"user_id"`
	State       string      `gorm:"not null;default:'created'" json:"state"`
	Success     bool        `gorm:"not null;default:false" json:"success"`
	Code        string      `json:"code"`
	Message     string      `json:"message"`
	Payload     JSONPayload `gorm:"type:jsonb" json:"-"`
	Resource    JSONPayload `gorm:"type:jsonb" json:"resource,omitempty"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

func NewOperationRecord(name, userID string, payload interface{}) (*OperationRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OperationRecord{
		ID:        uuid.New(),
		Name:      name,
		UserID:    userID,
		State:     OperationStateCreated,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Endpoint is the deferred-operation reference handed back to clients.
func (r *OperationRecord) Endpoint() string {
	return "operations/" + r.ID.String()
}

func (r *OperationRecord) ToState() OperationState {
	return OperationState{
		ID:       r.ID.String(),
		Name:     r.Name,
		State:    r.State,
		Success:  r.Success,
		Code:     r.Code,
		Message:  r.Message,
		Resource: json.RawMessage(r.Resource),
	}
}
