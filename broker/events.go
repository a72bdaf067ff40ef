package broker

type EventType string

const (
	// Sent once an operation reaches a terminal state.
	OperationUpdated EventType = "operation_updated"
)
