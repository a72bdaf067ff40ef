package broker

// Subjects the panel exchanges over NATS.
const (
	OperationsSubject = "operations.updated"
)
