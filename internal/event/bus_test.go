package event

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFansOutToSubscribers(t *testing.T) {
	bus := NewBus()
	first, unsubFirst := bus.Subscribe()
	second, unsubSecond := bus.Subscribe()
	defer unsubFirst()
	defer unsubSecond()

	e := New(TypeTicketBooked, "ticket-1", map[string]any{"train_id": "train-1"})
	bus.Publish(e)

	assert.Equal(t, e, <-first)
	assert.Equal(t, e, <-second)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	var dropped int
	bus.OnDrop(func(Event) { dropped++ })

	for i := 0; i < subscriberBuffer+3; i++ {
		bus.Publish(New(TypeTicketValidated, "t", nil))
	}

	assert.Equal(t, 3, dropped)
}

func TestUnsubscribeClosesOnce(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()

	unsubscribe()
	assert.NotPanics(t, unsubscribe)

	_, open := <-ch
	assert.False(t, open)

	assert.NotPanics(t, func() { bus.Publish(New(TypeTrainDeleted, "train-1", nil)) })
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *InMemoryBus
	assert.NotPanics(t, func() { bus.Publish(New(TypeRoleChanged, "user-1", nil)) })
}

func TestConsumeFeedsSinksUntilCancelled(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu   sync.Mutex
		seen []Type
	)
	got := make(chan struct{}, 2)
	done := Consume(ctx, bus, func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
		got <- struct{}{}
	})

	bus.Publish(New(TypeTicketBooked, "ticket-1", nil))
	bus.Publish(New(TypeStationDeleted, "station-1", nil))
	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatal("sink was not called")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Type{TypeTicketBooked, TypeStationDeleted}, seen)
}

func TestAuditLogWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := AuditLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink(New(TypeRoleChanged, "user-7", map[string]any{"to": "admin"}))

	out := buf.String()
	assert.Contains(t, out, `"msg":"audit"`)
	assert.Contains(t, out, `"type":"user.role_changed"`)
	assert.Contains(t, out, `"subject":"user-7"`)
	assert.Contains(t, out, `"to":"admin"`)
}
