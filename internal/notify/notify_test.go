package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/events"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func bookingEvent(t *testing.T, topic string) events.Event {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"booking_id":     "b-1",
		"customer_email": "anna@example.com",
		"customer_name":  "Anna",
		"service_name":   "Standard cleaning",
		"total_minor":    int64(80000),
		"currency":       "SEK",
	})
	require.NoError(t, err)
	return events.Event{TenantID: "clean-co", Topic: topic, AggregateID: "b-1", Payload: payload}
}

func TestEnqueuerSchedulesBookingEmail(t *testing.T) {
	client := &captureEnqueuer{}
	enq := &Enqueuer{Client: client, Logger: zerolog.Nop(), Enabled: true}

	require.NoError(t, enq.Notify(context.Background(), bookingEvent(t, events.TopicBookingCreated)))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TaskTypeBookingEmail, client.tasks[0].Type())

	var payload BookingEmailPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	require.Equal(t, "anna@example.com", payload.To)
	require.Equal(t, "pending", payload.Status)
	require.Equal(t, int64(80000), payload.TotalMinor)
}

func TestEnqueuerIgnoresUnrelatedTopics(t *testing.T) {
	client := &captureEnqueuer{}
	enq := &Enqueuer{Client: client, Logger: zerolog.Nop(), Enabled: true}

	require.NoError(t, enq.Notify(context.Background(), bookingEvent(t, events.TopicFormPublished)))
	require.Empty(t, client.tasks)
}

func TestEnqueuerDisabledIsNoop(t *testing.T) {
	client := &captureEnqueuer{}
	enq := &Enqueuer{Client: client, Logger: zerolog.Nop(), Enabled: false}

	require.NoError(t, enq.Notify(context.Background(), bookingEvent(t, events.TopicBookingCreated)))
	require.Empty(t, client.tasks)
}

func TestHandleBookingEmailSends(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	handler := TaskHandler{Sender: outbox, Logger: zerolog.Nop()}

	task, err := NewBookingEmailTask(BookingEmailPayload{
		TenantID:     "clean-co",
		BookingID:    "b-1",
		To:           "anna@example.com",
		CustomerName: "Anna",
		ServiceName:  "Standard cleaning",
		Status:       "accepted",
		TotalMinor:   80000,
		Currency:     "SEK",
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleBookingEmail(context.Background(), task))
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "anna@example.com", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].Subject, "confirmed")
	require.Contains(t, outbox.Outbox[0].HTML, "800.00 SEK")
}

func TestHandleBookingEmailSkipsBadPayload(t *testing.T) {
	handler := TaskHandler{Sender: &common.InMemoryEmail{}, Logger: zerolog.Nop()}
	err := handler.HandleBookingEmail(context.Background(), asynq.NewTask(TaskTypeBookingEmail, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
