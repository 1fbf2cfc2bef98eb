package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the complete flow from TransactionalBus to the main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan RollSubmittedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeRollSubmitted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if rollEvent, ok := event.(RollSubmittedEvent); ok {
			eventReceived <- rollEvent
		} else {
			t.Errorf("Expected RollSubmittedEvent, got %T", event)
		}
	})

	testEvent := RollSubmittedEvent{
		RollID:   42,
		Account:  "alice",
		Outcome:  3,
		RolledAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	wg.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan Event, 1)
	mainBus.Subscribe(EventTypePayoutFinalized, func(ctx context.Context, event Event) {
		received <- event
	})

	transactionalBus.Publish(PayoutFinalizedEvent{PayoutID: 1, WinnerAccount: "bob", Amount: 148500})
	transactionalBus.Discard()

	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case ev := <-received:
		t.Fatalf("Discarded event was delivered: %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]int)
	var wg sync.WaitGroup
	wg.Add(3)

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()]++
		mu.Unlock()
	})

	ctx := context.Background()
	bus.Emit(ctx, TicketCreditedEvent{Account: "alice", Count: 1, NewBalance: 1})
	bus.Emit(ctx, PeriodClosedEvent{PeriodID: 1704153600, WinningOutcome: 3})
	bus.Emit(ctx, PayoutScheduledEvent{PayoutID: 7, Amount: 148500})

	wg.Wait()

	assert.Equal(t, 1, seen[EventTypeTicketCredited])
	assert.Equal(t, 1, seen[EventTypePeriodClosed])
	assert.Equal(t, 1, seen[EventTypePayoutScheduled])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeRollSubmitted, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeRollSubmitted, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), RollSubmittedEvent{RollID: 1})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Second handler did not run")
	}
}

func TestBus_SubscribeOrderedPreservesEmissionOrder(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var order []int64
	done := make(chan struct{})

	bus.SubscribeOrdered(func(ctx context.Context, event Event) {
		if scheduled, ok := event.(PayoutScheduledEvent); ok {
			// Early events are slower so unordered delivery would show up
			time.Sleep(time.Duration(50-scheduled.PayoutID) * 100 * time.Microsecond)
			mu.Lock()
			order = append(order, scheduled.PayoutID)
			last := len(order) == 50
			mu.Unlock()
			if last {
				close(done)
			}
		}
	})

	// A settlement flushes its events in one pass after commit
	tx := NewTransactionalBus(bus)
	tx.Publish(PeriodClosedEvent{PeriodID: 1704153600})
	for i := int64(0); i < 50; i++ {
		tx.Publish(PayoutScheduledEvent{PayoutID: i, Amount: 148500})
	}
	require.NoError(t, tx.Flush(context.Background()))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Ordered handler did not receive every event")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, id := range order {
		assert.Equal(t, int64(i), id)
	}
}

func TestBus_SubscribeOrderedSurvivesHandlerPanic(t *testing.T) {
	bus := NewBus()

	received := make(chan EventType, 2)
	bus.SubscribeOrdered(func(ctx context.Context, event Event) {
		if event.Type() == EventTypePeriodClosed {
			panic("boom")
		}
		received <- event.Type()
	})

	bus.Emit(context.Background(), PeriodClosedEvent{PeriodID: 1})
	bus.Emit(context.Background(), PayoutScheduledEvent{PayoutID: 1})

	select {
	case eventType := <-received:
		assert.Equal(t, EventTypePayoutScheduled, eventType)
	case <-time.After(2 * time.Second):
		t.Fatal("Ordered handler stopped after a panic")
	}
}
