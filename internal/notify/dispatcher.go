package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
)

// Recipients resolves where owner and admin messages go.
type Recipients interface {
	WhatsAppNumber(ctx context.Context) string
	AdminEmail(ctx context.Context) string
}

// Dispatcher fans notifications out to each channel independently. A
// missing recipient skips that channel and a failed channel is logged and
// counted. Nothing is retried and nothing is returned to the caller.
type Dispatcher struct {
	Recipients Recipients
	WhatsApp   Notifier
	Email      Notifier
	Owner      Notifier
	Logger     *logger.Logger
}

func NewDispatcher(recipients Recipients, owner, email Notifier, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		Recipients: recipients,
		WhatsApp:   NewWhatsAppLink(owner),
		Email:      email,
		Owner:      owner,
		Logger:     log,
	}
}

func (d *Dispatcher) send(ctx context.Context, n Notifier, msg Message) {
	if n == nil {
		return
	}
	err := n.Notify(ctx, msg)
	switch {
	case err == nil:
		d.Logger.LogNotify(strings.ToUpper(n.Name()), fmt.Sprintf("%s %s delivered", msg.Kind, msg.OrderNumber))
	case errors.Is(err, ErrNoRecipient):
		d.Logger.Warn("NOTIFY", fmt.Sprintf("%s: no recipient for %s %s, skipped", n.Name(), msg.Kind, msg.OrderNumber))
	default:
		metrics.NotificationFailuresTotal.WithLabelValues(n.Name()).Inc()
		d.Logger.Error("NOTIFY", fmt.Sprintf("%s failed for %s %s: %v", n.Name(), msg.Kind, msg.OrderNumber, err))
	}
}

// OrderPlaced sends the WhatsApp link to the owner and the plain-text copy
// to the admin mailbox.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order models.Order, items []models.OrderItem) {
	text := OrderMessage(order, items)

	d.send(ctx, d.WhatsApp, Message{
		Kind:        KindOrderPlaced,
		Title:       "New Order Notification",
		To:          d.Recipients.WhatsAppNumber(ctx),
		Body:        text,
		Summary:     fmt.Sprintf("Order %s from %s.", order.OrderNumber, order.CustomerName),
		OrderNumber: order.OrderNumber,
	})

	d.send(ctx, d.Email, Message{
		Kind:        KindOrderPlaced,
		To:          d.Recipients.AdminEmail(ctx),
		Subject:     OrderEmailSubject(order),
		Body:        strings.ReplaceAll(text, "*", ""),
		OrderNumber: order.OrderNumber,
	})
}

// TicketsIssued emails the tickets to the customer, then tells the owner and
// the admin mailbox about the purchase.
func (d *Dispatcher) TicketsIssued(ctx context.Context, batch TicketBatch) {
	html, err := TicketEmailHTML(batch)
	if err != nil {
		d.Logger.Error("NOTIFY", fmt.Sprintf("ticket email for %s: %v", batch.OrderNumber, err))
	} else {
		d.send(ctx, d.Email, Message{
			Kind:        KindTicketsIssued,
			To:          batch.CustomerEmail,
			Subject:     fmt.Sprintf("Your Tickets for %s", batch.EventName),
			Body:        TicketAdminMessage(batch),
			HTML:        html,
			OrderNumber: batch.OrderNumber,
		})
	}

	d.send(ctx, d.Owner, Message{
		Kind:        KindTicketsIssued,
		Title:       "New Event Ticket Purchase",
		Body:        TicketOwnerContent(batch),
		OrderNumber: batch.OrderNumber,
	})

	d.send(ctx, d.Email, Message{
		Kind:        KindTicketsIssued,
		To:          d.Recipients.AdminEmail(ctx),
		Subject:     fmt.Sprintf("New Event Ticket Purchase - %s", batch.EventName),
		Body:        TicketAdminMessage(batch),
		OrderNumber: batch.OrderNumber,
	})
}
