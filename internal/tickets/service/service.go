package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/blob"
	"ms-storefront/internal/clock"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
	"ms-storefront/internal/notify"
	"ms-storefront/internal/tracing"
	"ms-storefront/internal/utils"
)

const qrContentType = "image/png"

const msgCreationFailed = "ticket creation failed"

type TicketDBLayer interface {
	CreateTickets(ctx context.Context, idb bun.IDB, tickets []models.Ticket) error
	GetByNumber(ctx context.Context, number string) (*models.Ticket, error)
	ListAll(ctx context.Context) ([]models.Ticket, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, number string, at time.Time) (bool, error)
	Cancel(ctx context.Context, number string) (bool, error)
	CountTickets(ctx context.Context) (int, error)
}

type QREncoder interface {
	Encode(content string) ([]byte, error)
}

// EventPublisher announces ticket lifecycle changes.
type EventPublisher interface {
	TicketsIssued(ctx context.Context, tickets []models.Ticket) error
	TicketVerified(ctx context.Context, ticket models.Ticket) error
}

// IssueNotifier gets the batch once the order transaction has committed.
type IssueNotifier interface {
	TicketsIssued(ctx context.Context, batch notify.TicketBatch)
}

type TicketService struct {
	DB        TicketDBLayer
	QR        QREncoder
	Blobs     blob.Store
	Clock     clock.Clock
	Publisher EventPublisher
	Notifier  IssueNotifier
	Logger    *logger.Logger
}

func NewTicketService(db TicketDBLayer, qr QREncoder, blobs blob.Store, clk clock.Clock, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, QR: qr, Blobs: blobs, Clock: clk, Logger: log}
}

type IssueRequest struct {
	OrderID       int64
	OrderNumber   string
	EventID       int64
	EventName     string
	CustomerName  string
	CustomerEmail string
	Quantity      int
	TotalPrice    int64
}

// UnitPrice splits the total evenly across tickets; the remainder is dropped.
func UnitPrice(total int64, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}
	return total / int64(quantity)
}

func qrKey(number string) string {
	return "qrcodes/" + number + ".png"
}

// Issue creates req.Quantity valid tickets through idb, each with its QR code
// uploaded to the blob store. Any failure uploads nothing that stays behind
// and writes no rows; run it inside the order transaction so the caller's
// rollback covers the order too. Tickets are returned in creation order.
func (s *TicketService) Issue(ctx context.Context, idb bun.IDB, req IssueRequest) ([]models.Ticket, error) {
	ctx, span := tracing.StartSpan(ctx, "tickets.issue")
	defer span.End()

	if req.Quantity < 1 {
		return nil, apperr.Validation("ticketQuantity must be at least 1")
	}

	price := UnitPrice(req.TotalPrice, req.Quantity)
	tickets := make([]models.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		number := utils.GenerateTicketNumber()

		png, err := s.QR.Encode(number)
		if err != nil {
			s.DiscardQRCodes(ctx, tickets)
			return nil, apperr.Wrap(apperr.KindInternal, msgCreationFailed, err)
		}
		url, err := s.Blobs.Put(ctx, qrKey(number), png, qrContentType)
		if err != nil {
			s.DiscardQRCodes(ctx, tickets)
			return nil, apperr.Wrap(apperr.KindInternal, msgCreationFailed, err)
		}

		tickets = append(tickets, models.Ticket{
			TicketNumber:  number,
			OrderID:       req.OrderID,
			EventID:       req.EventID,
			EventName:     req.EventName,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			Quantity:      1,
			Price:         price,
			QRCode:        url,
			Status:        models.TicketStatusValid,
		})
	}

	if err := s.DB.CreateTickets(ctx, idb, tickets); err != nil {
		s.DiscardQRCodes(ctx, tickets)
		return nil, apperr.Wrap(apperr.KindInternal, msgCreationFailed, err)
	}

	s.Logger.LogTicket("ISSUE", req.OrderNumber, fmt.Sprintf("%d ticket(s) for event %d at %d each", len(tickets), req.EventID, price))
	return tickets, nil
}

// DiscardQRCodes removes uploaded QR images, best effort. The order service
// calls it when the surrounding transaction rolls back.
func (s *TicketService) DiscardQRCodes(ctx context.Context, tickets []models.Ticket) {
	for _, t := range tickets {
		if err := s.Blobs.Delete(context.WithoutCancel(ctx), qrKey(t.TicketNumber)); err != nil {
			s.Logger.Warn("TICKET", fmt.Sprintf("discard QR for %s: %v", t.TicketNumber, err))
		}
	}
}

// Issued runs after commit: counts the tickets, announces them and sends
// the emails. Failures here are logged only.
func (s *TicketService) Issued(ctx context.Context, req IssueRequest, tickets []models.Ticket) {
	metrics.TicketsIssuedTotal.Add(float64(len(tickets)))

	if s.Publisher != nil {
		if err := s.Publisher.TicketsIssued(ctx, tickets); err != nil {
			s.Logger.Error("TICKET", fmt.Sprintf("publish issued tickets for %s: %v", req.OrderNumber, err))
		}
	}
	if s.Notifier != nil {
		s.Notifier.TicketsIssued(ctx, notify.TicketBatch{
			OrderNumber:   req.OrderNumber,
			EventName:     req.EventName,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			TotalAmount:   req.TotalPrice,
			Tickets:       tickets,
		})
	}
}

// Verify admits a ticket at the door. Only a valid ticket can be used and
// only one concurrent scan of it succeeds.
func (s *TicketService) Verify(ctx context.Context, number string) (*models.Ticket, error) {
	ctx, span := tracing.StartSpan(ctx, "tickets.verify")
	defer span.End()

	t, err := s.DB.GetByNumber(ctx, number)
	if err != nil {
		metrics.TicketVerificationsTotal.WithLabelValues(string(apperr.KindOf(err))).Inc()
		return nil, err
	}
	if err := stateError(t.Status); err != nil {
		metrics.TicketVerificationsTotal.WithLabelValues(t.Status).Inc()
		return nil, err
	}

	now := s.Clock.Now()
	ok, err := s.DB.MarkUsed(ctx, number, now)
	if err != nil {
		return nil, fmt.Errorf("verify ticket: %w", err)
	}
	if !ok {
		// lost the race to another scan or a cancel
		current, err := s.DB.GetByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		metrics.TicketVerificationsTotal.WithLabelValues(current.Status).Inc()
		if err := stateError(current.Status); err != nil {
			return nil, err
		}
		return nil, apperr.InvalidState("Ticket already used")
	}

	t.Status = models.TicketStatusUsed
	t.UsedAt = &now
	t.UpdatedAt = now
	metrics.TicketVerificationsTotal.WithLabelValues("verified").Inc()
	s.Logger.LogTicket("VERIFY", number, "admitted")

	if s.Publisher != nil {
		if err := s.Publisher.TicketVerified(ctx, *t); err != nil {
			s.Logger.Error("TICKET", fmt.Sprintf("publish verification of %s: %v", number, err))
		}
	}
	return t, nil
}

func stateError(status string) error {
	switch status {
	case models.TicketStatusUsed:
		return apperr.InvalidState("Ticket already used")
	case models.TicketStatusCancelled:
		return apperr.InvalidState("Ticket cancelled")
	}
	return nil
}

// Cancel voids a valid ticket. Used and cancelled tickets stay as they are.
func (s *TicketService) Cancel(ctx context.Context, number string) (*models.Ticket, error) {
	t, err := s.DB.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := stateError(t.Status); err != nil {
		return nil, err
	}
	ok, err := s.DB.Cancel(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("cancel ticket: %w", err)
	}
	if !ok {
		current, err := s.DB.GetByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if err := stateError(current.Status); err != nil {
			return nil, err
		}
		return nil, apperr.InvalidState("Ticket cannot be cancelled")
	}
	t.Status = models.TicketStatusCancelled
	s.Logger.LogTicket("CANCEL", number, "cancelled by admin")
	return t, nil
}

func (s *TicketService) List(ctx context.Context) ([]models.Ticket, error) {
	list, err := s.DB.ListAll(ctx)
	return s.degrade("list tickets", list, err)
}

func (s *TicketService) ByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	list, err := s.DB.ListByOrder(ctx, orderID)
	return s.degrade(fmt.Sprintf("tickets for order %d", orderID), list, err)
}

func (s *TicketService) ByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	list, err := s.DB.ListByEvent(ctx, eventID)
	return s.degrade(fmt.Sprintf("tickets for event %d", eventID), list, err)
}

func (s *TicketService) ByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	t, err := s.DB.GetByNumber(ctx, number)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("TICKET", fmt.Sprintf("get ticket %s: %v", number, err))
		return nil, nil
	}
	return t, err
}

func (s *TicketService) Count(ctx context.Context) (int, error) {
	n, err := s.DB.CountTickets(ctx)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("TICKET", fmt.Sprintf("count tickets: %v", err))
		return 0, nil
	}
	return n, err
}

func (s *TicketService) degrade(op string, list []models.Ticket, err error) ([]models.Ticket, error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("TICKET", fmt.Sprintf("%s: %v", op, err))
		return []models.Ticket{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Ticket{}
	}
	return list, nil
}
