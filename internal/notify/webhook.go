package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-boka/internal/events"
	"github.com/noah-isme/backend-boka/internal/obs"
)

// Webhook forwards booking events to an external endpoint as signed JSON
// POSTs. It implements events.Notifier; delivery is best-effort and failures
// surface through the bus's joined error plus the delivery counter.
type Webhook struct {
	URL     string
	Secret  string
	Client  *http.Client
	Logger  zerolog.Logger
	Enabled bool
}

type webhookEnvelope struct {
	EventID    string          `json:"eventId"`
	TenantID   string          `json:"tenantId"`
	Topic      string          `json:"topic"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Notify delivers the event to the configured endpoint.
func (w *Webhook) Notify(ctx context.Context, event events.Event) error {
	if w == nil || !w.Enabled || w.URL == "" {
		return nil
	}
	ctx, span := otel.Tracer("notify.Webhook").Start(ctx, "Webhook.Notify")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.topic", event.Topic),
		attribute.String("webhook.event_id", event.ID),
	)

	status, err := w.deliver(ctx, event)
	result := "delivered"
	if err != nil || status < 200 || status >= 300 {
		result = "failed"
	}
	if obs.NotifyDeliveriesTotal != nil {
		obs.NotifyDeliveriesTotal.WithLabelValues("webhook", result).Inc()
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: webhook delivery: %w", err)
	}
	if result == "failed" {
		err = fmt.Errorf("notify: webhook endpoint answered %d", status)
		span.RecordError(err)
		return err
	}
	w.Logger.Debug().Str("topic", event.Topic).Int("status", status).Msg("webhook delivered")
	return nil
}

func (w *Webhook) deliver(ctx context.Context, event events.Event) (int, error) {
	if err := validateWebhookURL(w.URL); err != nil {
		return 0, err
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	body, err := json.Marshal(webhookEnvelope{
		EventID:    event.ID,
		TenantID:   event.TenantID,
		Topic:      event.Topic,
		Data:       event.Payload,
		OccurredAt: occurred,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "boka-webhooks/1.0")
	req.Header.Set("X-Event-ID", event.ID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(w.Secret, ts, event.ID, body))

	resp, err := w.client().Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func (w *Webhook) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	w.Client = WebhookClient(5 * time.Second)
	return w.Client
}

// WebhookClient builds the HTTP client used for deliveries, with outbound
// requests traced via otelhttp.
func WebhookClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ComputeSignature is HMAC-SHA256 over "<ts>.<eventID>.<body>" with the
// shared secret, hex encoded. Receivers recompute it to authenticate the
// delivery.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	default:
		return errors.New("webhook url must be http or https")
	}
	return nil
}
