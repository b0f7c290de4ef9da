package infrastructure

import (
	"fmt"

	"cellbet/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return "users.balance_changed"
	case events.EventTypeSessionStarted:
		return "sessions.started"
	case events.EventTypeSessionUpdated:
		return "sessions.updated"
	case events.EventTypeSessionSettled:
		return "sessions.settled"
	case events.EventTypeDepositCredited:
		return "deposits.credited"
	case events.EventTypeWithdrawalStateChanged:
		return "withdrawals.state_changed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "users.balance_changed":
		return events.EventTypeBalanceChange
	case "sessions.started":
		return events.EventTypeSessionStarted
	case "sessions.updated":
		return events.EventTypeSessionUpdated
	case "sessions.settled":
		return events.EventTypeSessionSettled
	case "deposits.credited":
		return events.EventTypeDepositCredited
	case "withdrawals.state_changed":
		return events.EventTypeWithdrawalStateChanged
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"users.balance_changed",
		"sessions.started",
		"sessions.updated",
		"sessions.settled",
		"deposits.credited",
		"withdrawals.state_changed",
	}
}
