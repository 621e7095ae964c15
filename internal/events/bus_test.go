package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/events"
)

type stubStore struct {
	last events.Event
}

func (s *stubStore) InsertDomainEvent(_ context.Context, event events.Event) (events.Event, error) {
	event.ID = uuid.NewString()
	event.OccurredAt = time.Now()
	s.last = event
	return event, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	bookingID := uuid.NewString()
	event, err := bus.Emit(context.Background(), "clean-co", events.TopicBookingCreated, bookingID, map[string]any{"bookingId": bookingID})
	require.NoError(t, err)
	require.Equal(t, events.TopicBookingCreated, store.last.Topic)
	require.Equal(t, "clean-co", store.last.TenantID)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, bookingID, decoded["bookingId"])
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "clean-co", "", "agg", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), "clean-co", events.TopicBookingCreated, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), "clean-co", events.TopicBookingCreated, "agg", json.RawMessage("not json"))
	require.Error(t, err)
}

func TestEmitNilPayloadDefaultsToEmptyObject(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store}
	_, err := bus.Emit(context.Background(), "clean-co", events.TopicBookingAccepted, "agg", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(store.last.Payload))
}

func TestEmitCollectsNotifierErrors(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("smtp down")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{failing, ok}}

	event, err := bus.Emit(context.Background(), "clean-co", events.TopicBookingRejected, "agg", map[string]string{"reason": "overbooked"})
	require.Error(t, err)
	require.NotEmpty(t, event.ID)
	// both notifiers still ran
	require.Len(t, failing.events, 1)
	require.Len(t, ok.events, 1)
}
