package kafka

import (
	"context"
	"strconv"
	"time"

	"ms-storefront/internal/config"
	bus "ms-storefront/internal/kafka"
	"ms-storefront/internal/models"
)

type OrderEvent struct {
	Type        string       `json:"type"`
	Order       models.Order `json:"order"`
	EventID     *int64       `json:"eventId,omitempty"`
	Tickets     []string     `json:"tickets,omitempty"`
	PublishedAt time.Time    `json:"publishedAt"`
}

type TicketEvent struct {
	Type        string        `json:"type"`
	Ticket      models.Ticket `json:"ticket"`
	PublishedAt time.Time     `json:"publishedAt"`
}

// Producer publishes order and ticket lifecycle events.
type Producer struct {
	Publisher bus.Publisher
	Topics    config.TopicConfig
}

func NewProducer(pub bus.Publisher, topics config.TopicConfig) *Producer {
	return &Producer{Publisher: pub, Topics: topics}
}

// PublishOrderCreated streams the new order, keyed by order number.
func (p *Producer) PublishOrderCreated(ctx context.Context, entry models.OrderWithTickets) error {
	return bus.PublishJSON(ctx, p.Publisher, p.Topics.OrderCreated, entry.Order.OrderNumber, OrderEvent{
		Type:        "order.created",
		Order:       entry.Order,
		EventID:     entry.EventID,
		Tickets:     entry.Tickets,
		PublishedAt: time.Now().UTC(),
	})
}

func (p *Producer) PublishOrderUpdated(ctx context.Context, order models.Order) error {
	return bus.PublishJSON(ctx, p.Publisher, p.Topics.OrderUpdated, order.OrderNumber, OrderEvent{
		Type:        "order.updated",
		Order:       order,
		PublishedAt: time.Now().UTC(),
	})
}

// TicketsIssued publishes one message per ticket, keyed by ticket number.
func (p *Producer) TicketsIssued(ctx context.Context, tickets []models.Ticket) error {
	for _, t := range tickets {
		if err := p.publishTicket(ctx, p.Topics.TicketIssued, "ticket.issued", t); err != nil {
			return err
		}
	}
	return nil
}

func (p *Producer) TicketVerified(ctx context.Context, t models.Ticket) error {
	return p.publishTicket(ctx, p.Topics.TicketVerified, "ticket.verified", t)
}

func (p *Producer) publishTicket(ctx context.Context, topic, typ string, t models.Ticket) error {
	key := t.TicketNumber
	if key == "" {
		key = strconv.FormatInt(t.ID, 10)
	}
	return bus.PublishJSON(ctx, p.Publisher, topic, key, TicketEvent{
		Type:        typ,
		Ticket:      t,
		PublishedAt: time.Now().UTC(),
	})
}
