package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSONRoundTrip(t *testing.T) {
	e := NewEvent(EventQueueStatusChanged, "queue", "q-1", KindUpdated, map[string]interface{}{"status": "completed"})

	data, err := e.ToJSON()
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, e.Type, got.Type)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Kind, got.Kind)
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	ch, err := bus.Subscribe(ctx, EventScheduleCreated)
	require.NoError(t, err)

	err = bus.Publish(ctx, NewEvent(EventScheduleCreated, "schedule", "s-1", KindCreated, nil))
	require.NoError(t, err)

	select {
	case e := <-ch:
		assert.Equal(t, "s-1", e.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestMemoryBus_IgnoresUnsubscribedType(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	ch, err := bus.Subscribe(ctx, EventScheduleCreated)
	require.NoError(t, err)

	err = bus.Publish(ctx, NewEvent(EventTaskStatusChanged, "task", "t-1", KindUpdated, nil))
	require.NoError(t, err)

	select {
	case <-ch:
		t.Fatal("did not expect an event for an unsubscribed type")
	case <-time.After(50 * time.Millisecond):
	}
}
