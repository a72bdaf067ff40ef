package models

type OperationCallback func(outcome OperationOutcome)

type Subscription struct {
	ID         string
	Operation  string
	Event      OperationEvent
	OnSuccess  OperationCallback
	OnRejected OperationCallback
}

// Matches reports whether the outcome concerns this subscription and, if so,
// which callback applies. API outcomes carry the command name; push outcomes
// carry one of the event names.
func (s Subscription) Matches(outcome OperationOutcome) (OperationCallback, bool) {
	switch outcome.Name {
	case "":
		return nil, false
	case s.Operation:
		if outcome.Success {
			return s.OnSuccess, true
		}
		return s.OnRejected, true
	case s.Event.Success:
		return s.OnSuccess, true
	case s.Event.Rejected:
		return s.OnRejected, true
	}
	return nil, false
}
