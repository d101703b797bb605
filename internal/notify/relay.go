package notify

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
)

// OwnerSink delivers a decoded owner notification, e.g. WebhookOwnerChannel.
type OwnerSink interface {
	Deliver(ctx context.Context, n OwnerNotification) error
}

// OwnerRelay forwards owner notifications read from Kafka to a sink.
type OwnerRelay struct {
	Sink   OwnerSink
	Logger *logger.Logger
}

func NewOwnerRelay(sink OwnerSink, log *logger.Logger) *OwnerRelay {
	return &OwnerRelay{Sink: sink, Logger: log}
}

// Handle delivers one message. Malformed payloads are dropped so they do not
// block the partition; a failed delivery returns an error and stays
// uncommitted.
func (r *OwnerRelay) Handle(ctx context.Context, msg kafkago.Message) error {
	var n OwnerNotification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		r.Logger.Error("NOTIFY", fmt.Sprintf("Dropping malformed owner notification at offset %d: %v", msg.Offset, err))
		return nil
	}
	if err := r.Sink.Deliver(ctx, n); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("owner_relay").Inc()
		return fmt.Errorf("deliver owner notification %q: %w", n.Title, err)
	}
	r.Logger.LogNotify("owner_relay", fmt.Sprintf("%s %s", n.Title, n.OrderNumber))
	return nil
}
