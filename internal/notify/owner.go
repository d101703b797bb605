package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
)

// OwnerNotification is the wire form shared by the owner channels and the
// owner relay.
type OwnerNotification struct {
	Kind        Kind      `json:"kind,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	OrderNumber string    `json:"orderNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ownerNotification(msg Message) OwnerNotification {
	return OwnerNotification{
		Kind:        msg.Kind,
		Title:       msg.Title,
		Content:     msg.Body,
		OrderNumber: msg.OrderNumber,
		CreatedAt:   time.Now().UTC(),
	}
}

// KafkaOwnerChannel queues owner notifications on a topic drained by the
// owner relay.
type KafkaOwnerChannel struct {
	Publisher kafka.Publisher
	Topic     string
}

func (k *KafkaOwnerChannel) Name() string { return "owner_kafka" }

func (k *KafkaOwnerChannel) Notify(ctx context.Context, msg Message) error {
	n := ownerNotification(msg)
	return kafka.PublishJSON(ctx, k.Publisher, k.Topic, n.OrderNumber, n)
}

// WebhookOwnerChannel posts the notification as JSON.
type WebhookOwnerChannel struct {
	URL    string
	Client *http.Client
}

func NewWebhookOwnerChannel(url string, timeout time.Duration) *WebhookOwnerChannel {
	return &WebhookOwnerChannel{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (w *WebhookOwnerChannel) Name() string { return "owner_webhook" }

func (w *WebhookOwnerChannel) Notify(ctx context.Context, msg Message) error {
	return w.Deliver(ctx, ownerNotification(msg))
}

// Deliver posts an already built notification. The owner relay calls this
// with what it reads from Kafka.
func (w *WebhookOwnerChannel) Deliver(ctx context.Context, n OwnerNotification) error {
	if w.URL == "" {
		return fmt.Errorf("owner webhook URL not configured")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal owner notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post owner webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("owner webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogOwnerChannel writes owner notifications to the log only.
type LogOwnerChannel struct {
	Logger *logger.Logger
}

func (l *LogOwnerChannel) Name() string { return "owner_log" }

func (l *LogOwnerChannel) Notify(ctx context.Context, msg Message) error {
	l.Logger.LogNotify("OWNER", fmt.Sprintf("%s: %s", msg.Title, msg.Body))
	return nil
}
