package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTicketCredited  EventType = "ticket_credited"
	EventTypeRollSubmitted   EventType = "roll_submitted"
	EventTypePeriodClosed    EventType = "period_closed"
	EventTypePayoutScheduled EventType = "payout_scheduled"
	EventTypePayoutFinalized EventType = "payout_finalized"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TicketCreditedEvent is emitted when a payment mints a ticket
type TicketCreditedEvent struct {
	Account    string `json:"account"`
	Count      int64  `json:"count"`
	NewBalance int64  `json:"new_balance"`
	Amount     int64  `json:"amount"`
}

func (e TicketCreditedEvent) Type() EventType {
	return EventTypeTicketCredited
}

// RollSubmittedEvent is emitted after a roll is appended to the log
type RollSubmittedEvent struct {
	RollID   int64     `json:"roll_id"`
	Account  string    `json:"account"`
	Outcome  int       `json:"outcome"`
	RolledAt time.Time `json:"rolled_at"`
}

func (e RollSubmittedEvent) Type() EventType {
	return EventTypeRollSubmitted
}

// PeriodClosedEvent is emitted when a period settles
type PeriodClosedEvent struct {
	PeriodID       int64     `json:"period_id"`
	WinningOutcome int       `json:"winning_outcome"`
	Pot            int64     `json:"pot"`
	PayablePot     int64     `json:"payable_pot"`
	Share          int64     `json:"share"`
	WinnerCount    int       `json:"winner_count"`
	RollCount      int       `json:"roll_count"`
	DrawnAt        time.Time `json:"drawn_at"`
}

func (e PeriodClosedEvent) Type() EventType {
	return EventTypePeriodClosed
}

// PayoutScheduledEvent is emitted for every payout entry a close creates
type PayoutScheduledEvent struct {
	PayoutID      int64  `json:"payout_id"`
	PeriodID      int64  `json:"period_id"`
	WinnerAccount string `json:"winner_account"`
	Amount        int64  `json:"amount"`
	Processed     bool   `json:"processed"`
}

func (e PayoutScheduledEvent) Type() EventType {
	return EventTypePayoutScheduled
}

// PayoutFinalizedEvent is emitted once a payout has been handed to the transfer service
type PayoutFinalizedEvent struct {
	PayoutID      int64  `json:"payout_id"`
	PeriodID      int64  `json:"period_id"`
	WinnerAccount string `json:"winner_account"`
	Amount        int64  `json:"amount"`
}

func (e PayoutFinalizedEvent) Type() EventType {
	return EventTypePayoutFinalized
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
	ordered  []*orderedSubscriber
}

const orderedQueueSize = 1024

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// orderedSubscriber delivers events to one handler on a single goroutine
type orderedSubscriber struct {
	handler Handler
	queue   chan queuedEvent
}

func (s *orderedSubscriber) run() {
	for qe := range s.queue {
		s.deliver(qe)
	}
}

func (s *orderedSubscriber) deliver(qe queuedEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType": qe.event.Type(),
				"panic":     r,
			}).Error("Ordered event handler panicked")
		}
	}()
	s.handler(qe.ctx, qe.event)
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler that receives every event, used by bridges to external brokers
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, handler)
}

// SubscribeOrdered adds a handler that receives every event one at a time, in the
// order Emit was called. Bridges to external brokers use it so consumers see a
// settlement's events in sequence.
func (b *Bus) SubscribeOrdered(handler Handler) {
	sub := &orderedSubscriber{
		handler: handler,
		queue:   make(chan queuedEvent, orderedQueueSize),
	}

	b.mu.Lock()
	b.ordered = append(b.ordered, sub)
	b.mu.Unlock()

	go sub.run()
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()])+len(b.all))
	handlers = append(handlers, b.handlers[event.Type()]...)
	handlers = append(handlers, b.all...)
	ordered := b.ordered
	b.mu.RUnlock()

	// Enqueued before returning so the next Emit lands behind this one
	for _, sub := range ordered {
		sub.queue <- queuedEvent{ctx: ctx, event: event}
	}

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks the emitter
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for commit
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit.
// Emission uses a background context since the request context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
