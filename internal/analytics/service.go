package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	ticketsdb "ms-storefront/internal/tickets/db"
)

const dailySalesDays = 30

type OrderStats interface {
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	OrdersByType(ctx context.Context) ([]TypeCount, error)
	DailySales(ctx context.Context, days int) ([]DailySalesData, error)
}

type TicketStats interface {
	CountsByEvent(ctx context.Context) ([]ticketsdb.EventTicketCount, error)
}

type EventLister interface {
	List(ctx context.Context, activeOnly bool) ([]models.Event, error)
}

// Service assembles the admin dashboard.
type Service struct {
	Orders  OrderStats
	Tickets TicketStats
	Events  EventLister
	Logger  *logger.Logger
}

func NewService(orders OrderStats, tickets TicketStats, events EventLister, log *logger.Logger) *Service {
	return &Service{Orders: orders, Tickets: tickets, Events: events, Logger: log}
}

// EventSummary joins an event's inventory with its ticket counts.
type EventSummary struct {
	EventID          int64  `json:"eventId"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	TotalTickets     int    `json:"totalTickets"`
	AvailableTickets int    `json:"availableTickets"`
	Issued           int    `json:"issued"`
	Used             int    `json:"used"`
	Cancelled        int    `json:"cancelled"`
}

type Dashboard struct {
	TotalOrders    int              `json:"totalOrders"`
	OrdersByStatus map[string]int   `json:"ordersByStatus"`
	OrdersByType   map[string]int   `json:"ordersByType"`
	Revenue        int64            `json:"revenue"`
	TicketsIssued  int              `json:"ticketsIssued"`
	TicketsUsed    int              `json:"ticketsUsed"`
	Events         []EventSummary   `json:"events"`
	DailySales     []DailySalesData `json:"dailySales"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

func emptyDashboard() *Dashboard {
	d := &Dashboard{
		OrdersByStatus: map[string]int{},
		OrdersByType:   map[string]int{},
		Events:         []EventSummary{},
		DailySales:     []DailySalesData{},
		GeneratedAt:    time.Now().UTC(),
	}
	for _, s := range models.OrderStatuses {
		d.OrdersByStatus[s] = 0
	}
	return d
}

// Dashboard returns order, revenue and ticket figures. Revenue leaves out
// cancelled orders. When the database is unreachable the dashboard is empty.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.build(ctx)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("ANALYTICS", fmt.Sprintf("dashboard: %v", err))
		return emptyDashboard(), nil
	}
	return d, err
}

func (s *Service) build(ctx context.Context) (*Dashboard, error) {
	d := emptyDashboard()

	byStatus, err := s.Orders.OrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	for _, c := range byStatus {
		d.OrdersByStatus[c.Status] = c.Orders
		d.TotalOrders += c.Orders
		if c.Status != models.OrderStatusCancelled {
			d.Revenue += c.Amount
		}
	}

	byType, err := s.Orders.OrdersByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders by type: %w", err)
	}
	for _, c := range byType {
		d.OrdersByType[c.OrderType] = c.Orders
	}

	daily, err := s.Orders.DailySales(ctx, dailySalesDays)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	if daily != nil {
		d.DailySales = daily
	}

	counts, err := s.Tickets.CountsByEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket counts: %w", err)
	}
	events, err := s.Events.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	d.Events = summarize(events, counts)
	for _, e := range d.Events {
		d.TicketsIssued += e.Issued
		d.TicketsUsed += e.Used
	}
	return d, nil
}

// summarize lists every event, plus tickets whose event has since been
// deleted, in event order.
func summarize(events []models.Event, counts []ticketsdb.EventTicketCount) []EventSummary {
	byEvent := make(map[int64]ticketsdb.EventTicketCount, len(counts))
	for _, c := range counts {
		byEvent[c.EventID] = c
	}

	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		c := byEvent[e.ID]
		delete(byEvent, e.ID)
		out = append(out, EventSummary{
			EventID:          e.ID,
			Name:             e.Name,
			Active:           e.Active,
			TotalTickets:     e.TotalTickets,
			AvailableTickets: e.AvailableTickets,
			Issued:           c.Issued,
			Used:             c.Used,
			Cancelled:        c.Cancelled,
		})
	}
	for _, c := range counts {
		if _, orphan := byEvent[c.EventID]; !orphan {
			continue
		}
		out = append(out, EventSummary{
			EventID:   c.EventID,
			Name:      c.EventName,
			Issued:    c.Issued,
			Used:      c.Used,
			Cancelled: c.Cancelled,
		})
	}
	return out
}
