package infrastructure

import (
	"fmt"

	"github.com/vitas-brc20/dicer/events"
)

// Subjects consumed and produced outside the domain event stream
const (
	PaymentReceivedSubject   = "ledger.payments.received"
	TransferRequestedSubject = "ledger.transfers.requested"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeTicketCredited:
		return "dicer.tickets.credited"
	case events.EventTypeRollSubmitted:
		return "dicer.rolls.submitted"
	case events.EventTypePeriodClosed:
		return "dicer.periods.closed"
	case events.EventTypePayoutScheduled:
		return "dicer.payouts.scheduled"
	case events.EventTypePayoutFinalized:
		return "dicer.payouts.finalized"
	default:
		return fmt.Sprintf("dicer.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "dicer.tickets.credited":
		return events.EventTypeTicketCredited
	case "dicer.rolls.submitted":
		return events.EventTypeRollSubmitted
	case "dicer.periods.closed":
		return events.EventTypePeriodClosed
	case "dicer.payouts.scheduled":
		return events.EventTypePayoutScheduled
	case "dicer.payouts.finalized":
		return events.EventTypePayoutFinalized
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects this service publishes domain events to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"dicer.tickets.credited",
		"dicer.rolls.submitted",
		"dicer.periods.closed",
		"dicer.payouts.scheduled",
		"dicer.payouts.finalized",
	}
}
