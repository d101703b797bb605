// Command ticket-scanner serves ticket lookup and verification for door
// staff. Every route requires an admin session.
package main

import (
	"context"
	"fmt"

	"ms-storefront/internal/logger"
	orderkafka "ms-storefront/internal/order/kafka"
	"ms-storefront/internal/server"
	"ms-storefront/internal/tickets/ticket_api"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	cfg := server.LoadConfig(log)
	cfg.Database.AutoMigrate = false
	ctx := context.Background()

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

	ticketService, err := server.TicketService(cfg.Storage, bunDB, log)
	if err != nil {
		log.Fatal("STORAGE", err.Error())
	}
	ticketService.Publisher = orderkafka.NewProducer(publisher, cfg.Kafka.Topics)

	r := server.NewRouter(cfg.Server, authn, func(ctx context.Context) error {
		if err := bunDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	}, log)
	r.Route("/api", ticket_api.NewHandler(ticketService, log).RegisterScannerRoutes)

	if err := server.Run(cfg.Server, cfg.Server.ScannerPort, r, "Ticket scanner", log); err != nil {
		log.Error("HTTP", err.Error())
	}
}
