package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Event, error)
	Featured(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, id int64, values map[string]interface{}) error
	Resize(ctx context.Context, id int64, total int) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	DB     Repository
	Logger *logger.Logger
}

func NewService(db Repository, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

type EventInput struct {
	Name             string     `json:"name" validate:"required"`
	Slug             string     `json:"slug" validate:"required"`
	Description      string     `json:"description"`
	Venue            string     `json:"venue" validate:"required"`
	Address          string     `json:"address"`
	EventDate        time.Time  `json:"eventDate" validate:"required"`
	EventEndDate     *time.Time `json:"eventEndDate"`
	ImageURL         string     `json:"imageUrl"`
	TicketPrice      int64      `json:"ticketPrice" validate:"gte=0"`
	TotalTickets     int        `json:"totalTickets" validate:"gte=0"`
	AvailableTickets *int       `json:"availableTickets" validate:"omitempty,gte=0"`
	Featured         bool       `json:"featured"`
	Active           *bool      `json:"active"`
}

type EventPatch struct {
	Name             *string    `json:"name" validate:"omitempty,min=1"`
	Slug             *string    `json:"slug" validate:"omitempty,min=1"`
	Description      *string    `json:"description"`
	Venue            *string    `json:"venue" validate:"omitempty,min=1"`
	Address          *string    `json:"address"`
	EventDate        *time.Time `json:"eventDate"`
	EventEndDate     *time.Time `json:"eventEndDate"`
	ImageURL         *string    `json:"imageUrl"`
	TicketPrice      *int64     `json:"ticketPrice" validate:"omitempty,gte=0"`
	TotalTickets     *int       `json:"totalTickets" validate:"omitempty,gte=0"`
	AvailableTickets *int       `json:"availableTickets"`
	Featured         *bool      `json:"featured"`
	Active           *bool      `json:"active"`
}

func (p EventPatch) values() map[string]interface{} {
	v := map[string]interface{}{}
	if p.Name != nil {
		v["name"] = *p.Name
	}
	if p.Slug != nil {
		v["slug"] = *p.Slug
	}
	if p.Description != nil {
		v["description"] = *p.Description
	}
	if p.Venue != nil {
		v["venue"] = *p.Venue
	}
	if p.Address != nil {
		v["address"] = *p.Address
	}
	if p.ImageURL != nil {
		v["image_url"] = *p.ImageURL
	}
	if p.EventDate != nil {
		v["event_date"] = p.EventDate.UTC()
	}
	if p.EventEndDate != nil {
		v["event_end_date"] = p.EventEndDate.UTC()
	}
	if p.TicketPrice != nil {
		v["ticket_price"] = *p.TicketPrice
	}
	if p.Featured != nil {
		v["featured"] = *p.Featured
	}
	if p.Active != nil {
		v["active"] = *p.Active
	}
	return v
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	list, err := s.DB.List(ctx, activeOnly)
	return s.degrade("list events", list, err)
}

func (s *Service) Featured(ctx context.Context) ([]models.Event, error) {
	list, err := s.DB.Featured(ctx)
	return s.degrade("featured events", list, err)
}

func (s *Service) degrade(op string, list []models.Event, err error) ([]models.Event, error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("EVENTS", fmt.Sprintf("%s: %v", op, err))
		return []models.Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Event{}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Event, error) {
	e, err := s.DB.Get(ctx, id)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("EVENTS", fmt.Sprintf("get event %d: %v", id, err))
		return nil, nil
	}
	return e, err
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	e, err := s.DB.GetBySlug(ctx, slug)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("EVENTS", fmt.Sprintf("get event %q: %v", slug, err))
		return nil, nil
	}
	return e, err
}

// Create stores a new event. Availability defaults to the full capacity.
func (s *Service) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	available := in.TotalTickets
	if in.AvailableTickets != nil {
		available = *in.AvailableTickets
	}
	if available > in.TotalTickets {
		return nil, apperr.Validation("availableTickets cannot exceed totalTickets")
	}
	if in.EventEndDate != nil && in.EventEndDate.Before(in.EventDate) {
		return nil, apperr.Validation("eventEndDate must not be before eventDate")
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	e := &models.Event{
		Name:             strings.TrimSpace(in.Name),
		Slug:             strings.TrimSpace(in.Slug),
		Description:      in.Description,
		Venue:            in.Venue,
		Address:          in.Address,
		EventDate:        in.EventDate.UTC(),
		EventEndDate:     in.EventEndDate,
		ImageURL:         in.ImageURL,
		TicketPrice:      in.TicketPrice,
		TotalTickets:     in.TotalTickets,
		AvailableTickets: available,
		Featured:         in.Featured,
		Active:           active,
	}
	if err := s.DB.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event %q created with %d tickets", e.Slug, e.TotalTickets))
	return e, nil
}

// Update applies patch. Availability only moves with ticket sales, so a
// capacity change goes through TotalTickets and shifts it by the same amount.
func (s *Service) Update(ctx context.Context, id int64, patch EventPatch) error {
	if err := utils.Validate(patch); err != nil {
		return err
	}
	if patch.AvailableTickets != nil {
		return apperr.Validation("availableTickets cannot be set directly, change totalTickets instead")
	}
	if patch.TotalTickets != nil {
		if err := s.DB.Resize(ctx, id, *patch.TotalTickets); err != nil {
			return fmt.Errorf("update event %d: %w", id, err)
		}
		s.Logger.Info("EVENTS", fmt.Sprintf("Event %d capacity set to %d", id, *patch.TotalTickets))
	}
	if err := s.DB.Update(ctx, id, patch.values()); err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.DB.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}
