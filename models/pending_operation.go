package models

import "time"

type PendingOperation struct {
	Key         string           `json:"key"`
	RequestID   string           `json:"requestId"`
	Processed   bool             `json:"processed"`
	CreatedAt   time.Time        `json:"createdAt"`
	ProcessedAt time.Time        `json:"processedAt,omitempty"`
	Value       OperationOutcome `json:"value"`
}
