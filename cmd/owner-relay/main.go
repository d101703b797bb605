// Command owner-relay drains the owner notification topic and posts each
// message to the owner webhook.
package main

import (
	"context"

	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/notify"
	"ms-storefront/internal/server"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	cfg := server.LoadConfig(log)
	if cfg.Notify.WebhookURL == "" {
		log.Fatal("CONFIG", "OWNER_WEBHOOK_URL not set")
	}

	ctx, stop := server.WaitForSignal(context.Background())
	defer stop()

	relay := notify.NewOwnerRelay(notify.NewWebhookOwnerChannel(cfg.Notify.WebhookURL, cfg.Notify.Timeout), log)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OwnerNotifications, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.Info("APP", "Owner relay started on topic "+cfg.Kafka.Topics.OwnerNotifications)
	if err := consumer.Start(ctx, relay.Handle); err != nil {
		log.Error("KAFKA", err.Error())
	}
	log.Info("APP", "Owner relay stopped")
}
