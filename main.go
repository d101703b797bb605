package main

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"ms-storefront/internal/analytics"
	analytics_api "ms-storefront/internal/analytics/api"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/cart"
	"ms-storefront/internal/cart/cart_api"
	cartdb "ms-storefront/internal/cart/db"
	"ms-storefront/internal/catalog"
	"ms-storefront/internal/catalog/catalog_api"
	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/config"
	"ms-storefront/internal/events"
	"ms-storefront/internal/events/event_api"
	eventsdb "ms-storefront/internal/events/db"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/notify"
	"ms-storefront/internal/order"
	orderdb "ms-storefront/internal/order/db"
	orderkafka "ms-storefront/internal/order/kafka"
	"ms-storefront/internal/order/order_api"
	orderredis "ms-storefront/internal/order/redis"
	"ms-storefront/internal/server"
	"ms-storefront/internal/settings"
	settingsdb "ms-storefront/internal/settings/db"
	"ms-storefront/internal/settings/settings_api"
	"ms-storefront/internal/sse"
	ticketsdb "ms-storefront/internal/tickets/db"
	"ms-storefront/internal/tickets/ticket_api"
	"ms-storefront/internal/tracing"
)

func ownerChannel(cfg *config.Config, pub kafka.Publisher, log *logger.Logger) notify.Notifier {
	switch cfg.Notify.OwnerChannel {
	case "kafka":
		return &notify.KafkaOwnerChannel{Publisher: pub, Topic: cfg.Kafka.Topics.OwnerNotifications}
	case "webhook":
		if cfg.Notify.WebhookURL == "" {
			log.Warn("NOTIFY", "OWNER_WEBHOOK_URL not set, owner notifications will only be logged")
			break
		}
		return notify.NewWebhookOwnerChannel(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}
	return &notify.LogOwnerChannel{Logger: log}
}

func readiness(bunDB *bun.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := bunDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting storefront initialization")
	cfg := server.LoadConfig(log)
	ctx := context.Background()

	tp, err := tracing.InitTracer(ctx, cfg.Tracing, log)
	if err != nil {
		log.Warn("TRACING", fmt.Sprintf("Tracing disabled: %v", err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	bunDB, err := server.OpenDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	rdb := server.ConnectRedis(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	authn, err := server.Authenticator(ctx, cfg.Auth, bunDB, rdb, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	publisher := server.Publisher(cfg.Kafka, log)
	defer publisher.Close()
	producer := orderkafka.NewProducer(publisher, cfg.Kafka.Topics)

	var settingsCache settings.Cache
	if rdb != nil {
		settingsCache = settings.NewRedisCache(rdb, cfg.Redis.SettingsTTL)
	}
	settingsService := settings.NewService(&settingsdb.DB{Bun: bunDB}, settingsCache, log)

	dispatcher := notify.NewDispatcher(settingsService, ownerChannel(cfg, publisher, log), notify.NewEmail(cfg.Email, log), log)

	ticketService, err := server.TicketService(cfg.Storage, bunDB, log)
	if err != nil {
		log.Fatal("STORAGE", err.Error())
	}
	ticketService.Publisher = producer
	ticketService.Notifier = dispatcher

	feed := sse.NewOrderFeed()
	orderService := order.NewOrderService(&orderdb.DB{Bun: bunDB}, &eventsdb.DB{Bun: bunDB}, ticketService, log)
	orderService.Kafka = producer
	orderService.Notifier = dispatcher
	orderService.Feed = feed
	if rdb != nil {
		orderService.Idempotency = orderredis.NewIdempotency(rdb, cfg.Redis.IdempotencyTTL)
	}

	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB}, log)
	cartService := cart.NewService(&cartdb.DB{Bun: bunDB}, &catalogdb.DB{Bun: bunDB}, log)
	eventService := events.NewService(&eventsdb.DB{Bun: bunDB}, log)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB), &ticketsdb.DB{Bun: bunDB}, &eventsdb.DB{Bun: bunDB}, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := server.NewRouter(cfg.Server, authn, readiness(bunDB, rdb), log)
	r.Handle("/files/*", server.FileHandler(cfg.Storage.Dir))

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/me", auth.Me)
		catalog_api.NewHandler(catalogService, log).RegisterRoutes(r)
		cart_api.NewHandler(cartService, log).RegisterRoutes(r)
		event_api.NewHandler(eventService, log).RegisterRoutes(r)
		order_api.NewHandler(orderService, order_api.NewSSEHandler(feed, log), log).RegisterRoutes(r)
		ticket_api.NewHandler(ticketService, log).RegisterRoutes(r)
		settings_api.NewHandler(settingsService, log).RegisterRoutes(r)
		analytics_api.NewHandler(analyticsService, log).RegisterRoutes(r)
	})
	log.Info("ROUTER", "API routes registered under /api")

	if err := server.Run(cfg.Server, cfg.Server.Port, r, "Storefront API", log); err != nil {
		log.Error("HTTP", err.Error())
	}
}
