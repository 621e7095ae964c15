// Package notify delivers booking notifications through background jobs.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBookingEmail is the task type for booking notification emails.
	TaskTypeBookingEmail = "notify:booking_email"
)

// BookingEmailPayload describes the information required to notify about a booking.
type BookingEmailPayload struct {
	TenantID     string `json:"tenant_id"`
	BookingID    string `json:"booking_id"`
	To           string `json:"to"`
	CustomerName string `json:"customer_name"`
	ServiceName  string `json:"service_name"`
	Status       string `json:"status"`
	TotalMinor   int64  `json:"total_minor"`
	Currency     string `json:"currency"`
}

// NewBookingEmailTask constructs an Asynq task.
func NewBookingEmailTask(payload BookingEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBookingEmail, data), nil
}

// TaskHandler processes notification tasks on the worker side.
type TaskHandler struct {
	Sender common.EmailSender
	Logger zerolog.Logger
}

// HandleBookingEmail processes TaskTypeBookingEmail tasks.
func (h TaskHandler) HandleBookingEmail(ctx context.Context, t *asynq.Task) error {
	var payload BookingEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}
	subject, body := renderBookingEmail(payload)
	if h.Sender == nil {
		h.Logger.Warn().Str("booking_id", payload.BookingID).Msg("email sender not configured, dropping notification")
		return nil
	}
	if err := h.Sender.Send(payload.To, subject, body); err != nil {
		if obs.NotifyDeliveriesTotal != nil {
			obs.NotifyDeliveriesTotal.WithLabelValues("email", "error").Inc()
		}
		return fmt.Errorf("send booking email: %w", err)
	}
	if obs.NotifyDeliveriesTotal != nil {
		obs.NotifyDeliveriesTotal.WithLabelValues("email", "ok").Inc()
	}
	h.Logger.Info().
		Str("tenant_id", payload.TenantID).
		Str("booking_id", payload.BookingID).
		Str("status", payload.Status).
		Msg("booking email sent")
	return nil
}

func renderBookingEmail(p BookingEmailPayload) (subject, body string) {
	total := fmt.Sprintf("%.2f %s", float64(p.TotalMinor)/100, p.Currency)
	switch p.Status {
	case "accepted":
		subject = "Your booking is confirmed"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your booking for %s has been confirmed. Total: %s.</p>", p.CustomerName, p.ServiceName, total)
	case "rejected":
		subject = "Your booking could not be confirmed"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Unfortunately your booking for %s could not be confirmed.</p>", p.CustomerName, p.ServiceName)
	default:
		subject = "We received your booking"
		body = fmt.Sprintf("<p>Hi %s,</p><p>We received your booking for %s. Total: %s. We will confirm it shortly.</p>", p.CustomerName, p.ServiceName, total)
	}
	return subject, body
}
