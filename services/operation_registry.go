package services

import "github.com/warden-io/warden-panel/models"

type OperationRegistryInterface interface {
	Lookup(name string) (models.OperationDefinition, bool)
	LookupEvent(event string) (models.OperationDefinition, bool)
	Operations() []models.OperationDefinition
}

// OperationRegistry maps command names to the events the backend emits for
// them. It is built once and never mutated.
type OperationRegistry struct {
	operations []models.OperationDefinition
}

func NewOperationRegistry() *OperationRegistry {
	return NewOperationRegistryFrom([][2]string{
		{"sign_up", "signed_up"},
		{"set_new_password", "new_password_set"},
		{"change_username", "username_changed"},
		{"change_password", "password_changed"},
		{"create_organization", "organization_created"},
		{"create_warden", "warden_created"},
		{"create_api_key", "api_key_created"},
	})
}

// NewOperationRegistryFrom builds a registry from (command, success event)
// pairs. Later duplicates of a command name are dropped.
func NewOperationRegistryFrom(pairs [][2]string) *OperationRegistry {
	registry := &OperationRegistry{}
	seen := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		if seen[pair[0]] {
			continue
		}
		seen[pair[0]] = true
		registry.operations = append(registry.operations, models.OperationDefinition{
			Name: pair[0],
			Event: models.OperationEvent{
				Success:  pair[1],
				Rejected: RejectedEventName(pair[0]),
			},
		})
	}
	return registry
}

func RejectedEventName(command string) string {
	return command + "_rejected"
}

func (r *OperationRegistry) Lookup(name string) (models.OperationDefinition, bool) {
	for _, op := range r.operations {
		if op.Name == name {
			return op, true
		}
	}
	return models.OperationDefinition{}, false
}

func (r *OperationRegistry) LookupEvent(event string) (models.OperationDefinition, bool) {
	for _, op := range r.operations {
		if op.Event.Success == event || op.Event.Rejected == event {
			return op, true
		}
	}
	return models.OperationDefinition{}, false
}

func (r *OperationRegistry) Operations() []models.OperationDefinition {
	out := make([]models.OperationDefinition, len(r.operations))
	copy(out, r.operations)
	return out
}
