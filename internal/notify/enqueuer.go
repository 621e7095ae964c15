package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/events"
)

// TaskEnqueuer submits tasks to the queue. Satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer listens for booking events and schedules notification jobs.
// It implements events.Notifier.
type Enqueuer struct {
	Client  TaskEnqueuer
	Logger  zerolog.Logger
	Enabled bool
}

type bookingEventPayload struct {
	BookingID     string `json:"booking_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	ServiceName   string `json:"service_name"`
	TotalMinor    int64  `json:"total_minor"`
	Currency      string `json:"currency"`
}

// Notify enqueues a booking email for booking lifecycle events.
func (e *Enqueuer) Notify(ctx context.Context, event events.Event) error {
	if e == nil || !e.Enabled || e.Client == nil {
		return nil
	}
	status, ok := statusForTopic(event.Topic)
	if !ok {
		return nil
	}
	var payload bookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("notify: decode event payload: %w", err)
	}
	if payload.CustomerEmail == "" {
		return nil
	}
	task, err := NewBookingEmailTask(BookingEmailPayload{
		TenantID:     event.TenantID,
		BookingID:    payload.BookingID,
		To:           payload.CustomerEmail,
		CustomerName: payload.CustomerName,
		ServiceName:  payload.ServiceName,
		Status:       status,
		TotalMinor:   payload.TotalMinor,
		Currency:     payload.Currency,
	})
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("notify: enqueue booking email: %w", err)
	}
	e.Logger.Debug().Str("topic", event.Topic).Str("booking_id", payload.BookingID).Msg("booking email enqueued")
	return nil
}

func statusForTopic(topic string) (string, bool) {
	switch topic {
	case events.TopicBookingCreated:
		return "pending", true
	case events.TopicBookingAccepted:
		return "accepted", true
	case events.TopicBookingRejected:
		return "rejected", true
	default:
		return "", false
	}
}
