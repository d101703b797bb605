package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
	tickets "ms-storefront/internal/tickets/service"
	"ms-storefront/internal/tracing"
	"ms-storefront/internal/utils"
)

type DBLayer interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	CreateOrder(ctx context.Context, idb bun.IDB, o *models.Order) error
	CreateItems(ctx context.Context, idb bun.IDB, items []models.OrderItem) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	Items(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// EventInventory reads and decrements event capacity inside the order
// transaction.
type EventInventory interface {
	Find(ctx context.Context, idb bun.IDB, id int64) (*models.Event, error)
	DecrementTickets(ctx context.Context, idb bun.IDB, id int64, qty int) error
}

type TicketIssuer interface {
	Issue(ctx context.Context, idb bun.IDB, req tickets.IssueRequest) ([]models.Ticket, error)
	DiscardQRCodes(ctx context.Context, issued []models.Ticket)
	Issued(ctx context.Context, req tickets.IssueRequest, issued []models.Ticket)
	ByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error)
}

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) ([]byte, bool, error)
	Complete(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
}

type KafkaPublisher interface {
	PublishOrderCreated(ctx context.Context, entry models.OrderWithTickets) error
	PublishOrderUpdated(ctx context.Context, order models.Order) error
}

type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order models.Order, items []models.OrderItem)
}

type OrderFeed interface {
	Publish(entry models.OrderWithTickets)
}

type OrderService struct {
	DB          DBLayer
	Events      EventInventory
	Issuer      TicketIssuer
	Idempotency IdempotencyStore
	Kafka       KafkaPublisher
	Notifier    OrderNotifier
	Feed        OrderFeed
	Logger      *logger.Logger
}

func NewOrderService(db DBLayer, events EventInventory, issuer TicketIssuer, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Events: events, Issuer: issuer, Logger: log}
}

type OrderItemInput struct {
	ProductID    *int64 `json:"productId"`
	ProductName  string `json:"productName" validate:"required"`
	ProductImage string `json:"productImage"`
	Size         string `json:"size"`
	Color        string `json:"color"`
	Quantity     int    `json:"quantity" validate:"gte=1"`
	Price        int64  `json:"price" validate:"gte=0"`
	Subtotal     int64  `json:"subtotal" validate:"gte=0"`
}

type CreateOrderRequest struct {
	CustomerName    string           `json:"customerName" validate:"required"`
	CustomerEmail   string           `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string           `json:"customerPhone" validate:"required"`
	ShippingAddress string           `json:"shippingAddress"`
	City            string           `json:"city"`
	State           string           `json:"state"`
	ZipCode         string           `json:"zipCode"`
	Country         string           `json:"country"`
	Notes           string           `json:"notes"`
	OrderType       string           `json:"orderType" validate:"required,oneof=clothing event"`
	TotalAmount     int64            `json:"totalAmount" validate:"gte=0"`
	Items           []OrderItemInput `json:"items" validate:"dive"`
	EventID         *int64           `json:"eventId"`
	TicketQuantity  int              `json:"ticketQuantity" validate:"gte=0"`
}

type CreateOrderResult struct {
	OrderID     int64    `json:"orderId"`
	OrderNumber string   `json:"orderNumber"`
	Tickets     []string `json:"tickets,omitempty"`
}

func validateCreate(req CreateOrderRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}
	switch req.OrderType {
	case models.OrderTypeClothing:
		if len(req.Items) == 0 {
			return apperr.Validation("items are required for clothing orders")
		}
	case models.OrderTypeEvent:
		if req.EventID == nil {
			return apperr.Validation("eventId is required for event orders")
		}
		if req.TicketQuantity < 1 {
			return apperr.Validation("ticketQuantity must be at least 1")
		}
	}
	return nil
}

func failureReason(err error) string {
	return string(apperr.KindOf(err))
}

// CreateOrder places a clothing or event order. Event orders take capacity
// and issue tickets in the same transaction as the order row, so a failure
// leaves no order, no tickets and no change to availability. Notifications
// happen after commit and never fail the order.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, userID *int64, idempotencyKey string) (*CreateOrderResult, error) {
	ctx, span := tracing.StartSpan(ctx, "order.create")
	defer span.End()
	start := time.Now()
	defer func() { metrics.OrderCreateLatency.Observe(time.Since(start).Seconds()) }()

	if err := validateCreate(req); err != nil {
		metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	key := strings.TrimSpace(idempotencyKey)
	if key != "" && s.Idempotency != nil {
		stored, reserved, err := s.Idempotency.Reserve(ctx, key)
		switch {
		case errors.Is(err, apperr.ErrInvalidState):
			return nil, err
		case err != nil:
			s.Logger.Warn("ORDER", fmt.Sprintf("idempotency unavailable, continuing without it: %v", err))
			key = ""
		case !reserved:
			var res CreateOrderResult
			if err := json.Unmarshal(stored, &res); err != nil {
				return nil, fmt.Errorf("decode stored order result: %w", err)
			}
			s.Logger.LogOrder("REPLAY", res.OrderNumber, "idempotent retry")
			return &res, nil
		}
	} else {
		key = ""
	}

	res, err := s.placeOrder(ctx, req, userID)
	if err != nil {
		metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		if key != "" {
			if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.Logger.Warn("ORDER", fmt.Sprintf("release idempotency key: %v", rerr))
			}
		}
		return nil, err
	}

	if key != "" {
		payload, _ := json.Marshal(res)
		if err := s.Idempotency.Complete(ctx, key, payload); err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("store idempotency result for %s: %v", res.OrderNumber, err))
			if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.Logger.Warn("ORDER", fmt.Sprintf("release idempotency key: %v", rerr))
			}
		}
	}
	return res, nil
}

func (s *OrderService) placeOrder(ctx context.Context, req CreateOrderRequest, userID *int64) (*CreateOrderResult, error) {
	order := &models.Order{
		OrderNumber:     utils.GenerateOrderNumber(),
		UserID:          userID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		State:           req.State,
		ZipCode:         req.ZipCode,
		Country:         req.Country,
		OrderType:       req.OrderType,
		TotalAmount:     req.TotalAmount,
		Status:          models.OrderStatusPending,
		Notes:           req.Notes,
	}

	var (
		items    []models.OrderItem
		issued   []models.Ticket
		issueReq tickets.IssueRequest
	)
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var event *models.Event
		if order.OrderType == models.OrderTypeEvent {
			ev, err := s.Events.Find(ctx, tx, *req.EventID)
			if err != nil {
				return err
			}
			if ev.AvailableTickets < req.TicketQuantity {
				return apperr.Capacity("Not enough tickets available")
			}
			if err := s.Events.DecrementTickets(ctx, tx, ev.ID, req.TicketQuantity); err != nil {
				return err
			}
			event = ev
		}

		if err := s.DB.CreateOrder(ctx, tx, order); err != nil {
			return err
		}

		if event == nil {
			items = buildItems(order.ID, req.Items)
			return s.DB.CreateItems(ctx, tx, items)
		}

		issueReq = tickets.IssueRequest{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			EventID:       event.ID,
			EventName:     event.Name,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			Quantity:      req.TicketQuantity,
			TotalPrice:    order.TotalAmount,
		}
		var err error
		issued, err = s.Issuer.Issue(ctx, tx, issueReq)
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrCapacity) {
			metrics.CapacityRejectionsTotal.Inc()
		}
		if len(issued) > 0 {
			s.Issuer.DiscardQRCodes(ctx, issued)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.OrdersCreatedTotal.WithLabelValues(order.OrderType).Inc()
	s.Logger.LogOrder("CREATE", order.OrderNumber, fmt.Sprintf("%s order for %s, total %d", order.OrderType, order.CustomerEmail, order.TotalAmount))

	entry := models.OrderWithTickets{Order: *order, EventID: req.EventID}
	for _, t := range issued {
		entry.Tickets = append(entry.Tickets, t.TicketNumber)
	}
	s.afterCommit(ctx, entry, items, issueReq, issued)

	return &CreateOrderResult{OrderID: order.ID, OrderNumber: order.OrderNumber, Tickets: entry.Tickets}, nil
}

func buildItems(orderID int64, in []OrderItemInput) []models.OrderItem {
	items := make([]models.OrderItem, len(in))
	for i, it := range in {
		subtotal := it.Subtotal
		if subtotal == 0 {
			subtotal = it.Price * int64(it.Quantity)
		}
		items[i] = models.OrderItem{
			OrderID:      orderID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Size:         it.Size,
			Color:        it.Color,
			Quantity:     it.Quantity,
			Price:        it.Price,
			Subtotal:     subtotal,
		}
	}
	return items
}

func (s *OrderService) afterCommit(ctx context.Context, entry models.OrderWithTickets, items []models.OrderItem, issueReq tickets.IssueRequest, issued []models.Ticket) {
	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(ctx, entry); err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("publish order %s: %v", entry.Order.OrderNumber, err))
		}
	}
	if s.Feed != nil {
		s.Feed.Publish(entry)
	}
	if s.Notifier != nil {
		s.Notifier.OrderPlaced(ctx, entry.Order, items)
	}
	if len(issued) > 0 {
		s.Issuer.Issued(ctx, issueReq, issued)
	}
}

func (s *OrderService) degrade(op string, list []models.Order, err error) ([]models.Order, error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("ORDER", fmt.Sprintf("%s: %v", op, err))
		return []models.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	list, err := s.DB.List(ctx)
	return s.degrade("list orders", list, err)
}

func (s *OrderService) MyOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	list, err := s.DB.ListByUser(ctx, userID)
	return s.degrade(fmt.Sprintf("orders of user %d", userID), list, err)
}

// Get returns the order if user is an admin or placed it.
func (s *OrderService) Get(ctx context.Context, id int64, user *models.User) (*models.Order, error) {
	o, err := s.DB.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("ORDER", fmt.Sprintf("get order %d: %v", id, err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !canView(o, user) {
		return nil, apperr.Forbidden("You do not have access to this order")
	}
	return o, nil
}

func canView(o *models.Order, user *models.User) bool {
	if user.IsAdmin() {
		return true
	}
	return user != nil && o.UserID != nil && *o.UserID == user.ID
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := s.DB.GetByNumber(ctx, number)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("ORDER", fmt.Sprintf("get order %s: %v", number, err))
		return nil, nil
	}
	return o, err
}

func (s *OrderService) Items(ctx context.Context, id int64, user *models.User) ([]models.OrderItem, error) {
	o, err := s.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return []models.OrderItem{}, nil
	}
	items, err := s.DB.Items(ctx, id)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("ORDER", fmt.Sprintf("items of order %d: %v", id, err))
		return []models.OrderItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.OrderItem{}
	}
	return items, nil
}

func (s *OrderService) Tickets(ctx context.Context, id int64, user *models.User) ([]models.Ticket, error) {
	o, err := s.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return []models.Ticket{}, nil
	}
	return s.Issuer.ByOrder(ctx, id)
}

// UpdateStatus sets any of the five order statuses. Transitions are not
// restricted.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("status must be one of [%s]", strings.Join(models.OrderStatuses, " ")))
	}
	if err := s.DB.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	o, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	metrics.OrderStatusUpdatesTotal.WithLabelValues(status).Inc()
	s.Logger.LogOrder("STATUS", o.OrderNumber, status)
	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderUpdated(ctx, *o); err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("publish status of %s: %v", o.OrderNumber, err))
		}
	}
	return o, nil
}
