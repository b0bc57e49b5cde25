package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSONDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got BookingEventPayload
	var calls int
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		calls++
		return json.Unmarshal(e.Payload, &got)
	})

	payload := BookingEventPayload{BookingID: 1, ItemID: 2, BookerID: 3}
	require.NoError(t, bus.PublishJSON(EventBookingCreated, payload))

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), got.BookingID)
	assert.Equal(t, int64(2), got.ItemID)
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	bus := NewEventBus()

	var calls int
	bus.Subscribe(EventBookingApproved, func(*Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventBookingRejected, struct{}{}))
	assert.Zero(t, calls)
}

func TestNilBusPublishIsSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventCommentAdded, struct{}{}))
}
